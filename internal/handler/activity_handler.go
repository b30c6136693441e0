package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatter-server/internal/services"
	"chatter-server/internal/transport/httpdto"
)

type ActivityHandler struct {
	service *services.ActivityService
}

func NewActivityHandler(service *services.ActivityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

func (h *ActivityHandler) Record(c *gin.Context) {
	projectID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid project id", "INVALID_REQUEST"))
		return
	}
	userID, ok := services.UserIDFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, httpdto.NewErrorResponse("unauthorized", "UNAUTHORIZED"))
		return
	}

	var req httpdto.RecordActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	entry, err := h.service.Record(c.Request.Context(), services.RecordActivityInput{
		ProjectID:  projectID,
		ActorID:    userID,
		ActionType: req.ActionType,
		Field:      req.Field,
		OldValue:   req.OldValue,
		NewValue:   req.NewValue,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(entry))
}

func (h *ActivityHandler) List(c *gin.Context) {
	projectID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid project id", "INVALID_REQUEST"))
		return
	}

	entries, hasMore, err := h.service.List(
		c.Request.Context(),
		projectID,
		parseIntOr(c.Query("limit"), 0),
		parseIntOr(c.Query("offset"), 0),
		c.Query("actionType"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"entries":  entries,
		"has_more": hasMore,
	}))
}
