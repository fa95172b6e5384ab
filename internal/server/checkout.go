package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/pedraum/payments/internal/checkout/domain"
)

type checkoutRequest struct {
	ResourceKind string `json:"resource_kind"`
	ResourceID   string `json:"resource_id"`
	BuyerID      string `json:"buyer_id"`
	Title        string `json:"title"`
	RelatedID    string `json:"related_id"`
	PathHint     string `json:"path_hint"`
}

func (s *Server) CreateCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if strings.TrimSpace(req.ResourceID) == "" {
		AbortWithError(c, newValidationError("resource_id", "missing_resource_id", "resource id is required"))
		return
	}

	resp, err := s.checkoutSvc.Create(c.Request.Context(), checkoutdomain.CreateRequest{
		ResourceKind: req.ResourceKind,
		ResourceID:   req.ResourceID,
		BuyerID:      req.BuyerID,
		Title:        req.Title,
		RelatedID:    req.RelatedID,
		PathHint:     req.PathHint,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
