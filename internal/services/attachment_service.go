package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatter-server/internal/domain/chatter"
	"chatter-server/internal/repository"
	chatter_errors "chatter-server/pkg/errors"
)

const (
	maxAttachmentSize         = 25 << 20 // 25 MiB
	defaultAttachmentPageSize = 25
	maxAttachmentPageSize     = 100
)

// Presigner issues direct-upload URLs against the external object
// store. The server never proxies file bytes.
type Presigner interface {
	PresignUpload(ctx context.Context, key, contentType string, sizeBytes int64) (string, error)
	PublicURL(key string) string
}

// UploadSlot is a one-shot grant: PUT the file to UploadURL, then send
// the attachment id with the message it belongs to.
type UploadSlot struct {
	Attachment chatter.AttachmentRef `json:"attachment"`
	UploadURL  string                `json:"upload_url"`
	ObjectKey  string                `json:"object_key"`
}

// AttachmentService records references to externally stored files and
// serves the per-project attachment gallery. References are created
// unlinked and bound to a message when that message is persisted.
type AttachmentService struct {
	uow     repository.UnitOfWork
	presign Presigner
}

func NewAttachmentService(uow repository.UnitOfWork, presign Presigner) *AttachmentService {
	return &AttachmentService{uow: uow, presign: presign}
}

type RegisterAttachmentInput struct {
	ProjectID  uuid.UUID
	UploaderID uuid.UUID
	FileName   string
	URL        string
	MimeType   string
	FileSize   int64
}

// Register records a reference to a file the client already uploaded.
func (s *AttachmentService) Register(ctx context.Context, in RegisterAttachmentInput) (chatter.AttachmentRef, error) {
	if err := validateAttachment(in.FileName, in.MimeType, in.FileSize); err != nil {
		return chatter.AttachmentRef{}, err
	}
	if in.URL == "" {
		return chatter.AttachmentRef{}, chatter_errors.ErrInvalidInput
	}

	ref := chatter.AttachmentRef{
		ID:         uuid.New(),
		ProjectID:  in.ProjectID,
		UploaderID: in.UploaderID,
		FileName:   in.FileName,
		URL:        in.URL,
		MimeType:   in.MimeType,
		FileSize:   in.FileSize,
		CreatedAt:  time.Now(),
	}
	if err := s.uow.Repos().Attachments.Create(ctx, &ref); err != nil {
		return chatter.AttachmentRef{}, err
	}
	return ref, nil
}

// CreateUploadSlot presigns a direct PUT and records the unlinked
// reference in one step.
func (s *AttachmentService) CreateUploadSlot(ctx context.Context, in RegisterAttachmentInput) (UploadSlot, error) {
	if s.presign == nil {
		return UploadSlot{}, chatter_errors.ErrServiceUnavailable
	}
	if err := validateAttachment(in.FileName, in.MimeType, in.FileSize); err != nil {
		return UploadSlot{}, err
	}

	id := uuid.New()
	key := buildObjectKey(in.ProjectID, id, in.FileName)

	uploadURL, err := s.presign.PresignUpload(ctx, key, in.MimeType, in.FileSize)
	if err != nil {
		return UploadSlot{}, err
	}

	ref := chatter.AttachmentRef{
		ID:         id,
		ProjectID:  in.ProjectID,
		UploaderID: in.UploaderID,
		FileName:   in.FileName,
		URL:        s.presign.PublicURL(key),
		MimeType:   in.MimeType,
		FileSize:   in.FileSize,
		CreatedAt:  time.Now(),
	}
	if err := s.uow.Repos().Attachments.Create(ctx, &ref); err != nil {
		return UploadSlot{}, err
	}

	return UploadSlot{Attachment: ref, UploadURL: uploadURL, ObjectKey: key}, nil
}

// List returns linked attachments for the project gallery, newest
// first, optionally filtered by mime type prefix.
func (s *AttachmentService) List(ctx context.Context, projectID uuid.UUID, limit, offset int, mimeType string) ([]chatter.AttachmentRef, bool, error) {
	if limit <= 0 {
		limit = defaultAttachmentPageSize
	}
	if limit > maxAttachmentPageSize {
		limit = maxAttachmentPageSize
	}
	if offset < 0 {
		offset = 0
	}
	refs, hasMore, err := s.uow.Repos().Attachments.ListByProject(ctx, projectID, limit, offset, mimeType)
	if err != nil {
		return nil, false, err
	}
	if refs == nil {
		refs = []chatter.AttachmentRef{}
	}
	return refs, hasMore, nil
}

func validateAttachment(fileName, mimeType string, size int64) error {
	if fileName == "" || mimeType == "" {
		return chatter_errors.ErrInvalidInput
	}
	if size <= 0 || size > maxAttachmentSize {
		return chatter_errors.ErrInvalidInput
	}
	if strings.ContainsAny(fileName, "/\\") {
		return chatter_errors.ErrInvalidInput
	}
	return nil
}

func buildObjectKey(projectID, attachmentID uuid.UUID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("chatter/%s/%s%s", projectID, attachmentID, ext)
}
