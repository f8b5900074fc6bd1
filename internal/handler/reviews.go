package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/settlewise/case-service/internal/reviews"
)

type ReviewsHandler struct {
	client *reviews.Client
}

func NewReviewsHandler(client *reviews.Client) *ReviewsHandler {
	return &ReviewsHandler{client: client}
}

// List serves the cached testimonial feed for the marketing pages.
// Never an error: the feed degrades to an empty list.
func (h *ReviewsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"reviews": h.client.Fetch(c.Request.Context())})
}
