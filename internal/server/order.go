package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetOrder(c *gin.Context) {
	order, err := s.orderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) ListOrders(c *gin.Context) {
	buyerID := strings.TrimSpace(c.Query("buyer_id"))
	if buyerID == "" {
		AbortWithError(c, newValidationError("buyer_id", "missing_buyer_id", "buyer_id is required"))
		return
	}

	orders, err := s.orderSvc.ListByBuyer(c.Request.Context(), buyerID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}
