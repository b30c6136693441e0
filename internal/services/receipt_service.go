package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"chatter-server/internal/domain/chatter"
	"chatter-server/internal/events"
	"chatter-server/internal/repository"
	chatter_errors "chatter-server/pkg/errors"
)

// ReceiptSummary is the per-thread view tracker: distinct viewers with
// their most recent read time.
type ReceiptSummary struct {
	TotalViews int                   `json:"total_views"`
	Viewers    []chatter.ReadReceipt `json:"viewers"`
}

// ReceiptService records thread reads. A repeat view refreshes the
// timestamp on the existing row; the viewer count stays distinct.
type ReceiptService struct {
	uow repository.UnitOfWork
}

func NewReceiptService(uow repository.UnitOfWork) *ReceiptService {
	return &ReceiptService{uow: uow}
}

func (s *ReceiptService) MarkRead(ctx context.Context, threadID, userID uuid.UUID) error {
	return s.uow.Do(ctx, func(r repository.Repositories) error {
		thread, err := r.Messages.GetByID(ctx, threadID)
		if err != nil {
			return err
		}
		if thread.Kind != chatter.KindThread || !thread.IsLive() {
			return chatter_errors.ErrNotFound
		}

		now := time.Now()
		if err := r.Receipts.Upsert(ctx, threadID, userID, now); err != nil {
			return err
		}
		return recordEvent(ctx, r, events.EventReceiptUpdated, events.AggregateReceipt, threadID.String(), &thread.ProjectID, nil, map[string]interface{}{
			"thread_id": threadID,
			"user_id":   userID,
			"read_at":   now,
		})
	})
}

func (s *ReceiptService) Receipts(ctx context.Context, threadID uuid.UUID) (ReceiptSummary, error) {
	viewers, err := s.uow.Repos().Receipts.ListByThread(ctx, threadID)
	if err != nil {
		return ReceiptSummary{}, err
	}
	if viewers == nil {
		viewers = []chatter.ReadReceipt{}
	}
	return ReceiptSummary{TotalViews: len(viewers), Viewers: viewers}, nil
}
