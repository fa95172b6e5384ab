package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accessdomain "github.com/pedraum/payments/internal/access/domain"
	"github.com/pedraum/payments/internal/observability/logger"
	"go.uber.org/zap"
)

type unlockRequest struct {
	ResourceID string `json:"resource_id"`
	ConsumerID string `json:"consumer_id"`
	Source     string `json:"source"`
}

// UnlockAccess is the client-side fallback for unlocks the webhook should
// normally perform. Storage failures answer ok=false instead of an error
// status: the webhook path converges on the same state later.
func (s *Server) UnlockAccess(c *gin.Context) {
	var req unlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	source := req.Source
	if source == "" {
		source = "client"
	}

	err := s.accessSvc.Unlock(c.Request.Context(), req.ResourceID, req.ConsumerID, source)
	if err != nil {
		if errors.Is(err, accessdomain.ErrInvalidUnlock) {
			AbortWithError(c, err)
			return
		}
		logger.FromContext(c.Request.Context()).Warn("fallback unlock failed",
			zap.String("resource_id", req.ResourceID),
			zap.Error(err),
		)
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": "unlock_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) CheckAccess(c *gin.Context) {
	unlocked, err := s.accessSvc.IsUnlocked(c.Request.Context(), c.Param("resource_id"), c.Param("consumer_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unlocked": unlocked})
}
