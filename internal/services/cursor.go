package services

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"chatter-server/internal/repository"
	chatter_errors "chatter-server/pkg/errors"
)

// Thread cursors are opaque keyset positions: base64("unixNano:uuid").
// Keyset pagination stays stable while new threads arrive above the
// client's position.

func encodeThreadCursor(createdAt time.Time, id uuid.UUID) string {
	raw := fmt.Sprintf("%d:%s", createdAt.UnixNano(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeThreadCursor(value string) (*repository.ThreadCursor, error) {
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, chatter_errors.ErrInvalidInput
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return nil, chatter_errors.ErrInvalidInput
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return nil, chatter_errors.ErrInvalidInput
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, chatter_errors.ErrInvalidInput
	}
	return &repository.ThreadCursor{Before: time.Unix(0, nanos), BeforeID: id}, nil
}
