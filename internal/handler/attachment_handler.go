package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chatter-server/internal/services"
	"chatter-server/internal/transport/httpdto"
)

type AttachmentHandler struct {
	service *services.AttachmentService
}

func NewAttachmentHandler(service *services.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: service}
}

func (h *AttachmentHandler) Register(c *gin.Context) {
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

	var req httpdto.RegisterAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	ref, err := h.service.Register(c.Request.Context(), services.RegisterAttachmentInput{
		ProjectID:  projectID,
		UploaderID: userID,
		FileName:   req.FileName,
		URL:        req.URL,
		MimeType:   req.MimeType,
		FileSize:   req.FileSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(ref))
}

func (h *AttachmentHandler) CreateUploadSlot(c *gin.Context) {
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

	var req httpdto.CreateUploadSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid request", "INVALID_REQUEST"))
		return
	}

	slot, err := h.service.CreateUploadSlot(c.Request.Context(), services.RegisterAttachmentInput{
		ProjectID:  projectID,
		UploaderID: userID,
		FileName:   req.FileName,
		MimeType:   req.MimeType,
		FileSize:   req.FileSize,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(slot))
}

func (h *AttachmentHandler) List(c *gin.Context) {
	projectID, err := parseUUID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid project id", "INVALID_REQUEST"))
		return
	}

	refs, hasMore, err := h.service.List(
		c.Request.Context(),
		projectID,
		parseIntOr(c.Query("limit"), 0),
		parseIntOr(c.Query("offset"), 0),
		c.Query("mimeType"),
	)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{
		"attachments": refs,
		"has_more":    hasMore,
	}))
}
