package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"chatter-server/internal/transport/httpdto"
	chatter_errors "chatter-server/pkg/errors"
)

func parseUUID(value string) (uuid.UUID, error) {
	return uuid.Parse(value)
}

func parseIntOr(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// respondError maps domain sentinel errors onto HTTP statuses. Anything
// unmapped is a 500 with a generic body; the logged error carries the
// detail.
func respondError(c *gin.Context, err error) {
	switch {
	case chatter_errors.IsValidation(err):
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(err.Error(), "VALIDATION_FAILED"))
	case errors.Is(err, chatter_errors.ErrNotOwner):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse(err.Error(), "NOT_OWNER"))
	case errors.Is(err, chatter_errors.ErrUnauthorized):
		c.JSON(http.StatusForbidden, httpdto.NewErrorResponse(err.Error(), "FORBIDDEN"))
	case errors.Is(err, chatter_errors.ErrNotFound), errors.Is(err, chatter_errors.ErrThreadDeleted):
		c.JSON(http.StatusNotFound, httpdto.NewErrorResponse(err.Error(), "NOT_FOUND"))
	case errors.Is(err, chatter_errors.ErrConflict), errors.Is(err, chatter_errors.ErrAlreadyExists):
		c.JSON(http.StatusConflict, httpdto.NewErrorResponse(err.Error(), "CONFLICT"))
	case errors.Is(err, chatter_errors.ErrServiceUnavailable):
		c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "SERVICE_UNAVAILABLE"))
	default:
		c.JSON(http.StatusInternalServerError, httpdto.NewErrorResponse("internal error", "INTERNAL_ERROR"))
	}
}

func parseAttachmentIDs(values []string) ([]uuid.UUID, error) {
	if len(values) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(values))
	for _, v := range values {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
