package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/settlewise/case-service/internal/middleware"
	"github.com/settlewise/case-service/internal/model"
	"github.com/settlewise/case-service/internal/service"
)

type DocumentHandler struct {
	svc *service.DocumentService
}

func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Upload accepts a multipart form with "file" and an optional "name"
// override (defaults to the uploaded filename).
func (h *DocumentHandler) Upload(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	name := c.PostForm("name")
	if name == "" {
		name = fileHeader.Filename
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer f.Close()

	doc, err := h.svc.Upload(c.Request.Context(), actor, c.Param("id"), name, fileHeader.Size, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

type reviewDocumentRequest struct {
	DocumentID      string `json:"document_id" binding:"required"`
	Status          string `json:"status" binding:"required"`
	RejectionReason string `json:"rejection_reason"`
}

func (h *DocumentHandler) Review(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	var req reviewDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	doc, err := h.svc.Review(c.Request.Context(), actor, c.Param("id"), req.DocumentID,
		model.DocumentStatus(req.Status), req.RejectionReason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}
