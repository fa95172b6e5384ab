package server

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	viewsdomain "github.com/pedraum/payments/internal/views/domain"
)

type registerViewRequest struct {
	DeviceID     string `json:"device_id"`
	ViewerUserID string `json:"viewer_user_id"`
}

// RegisterView counts a resource sighting. The endpoint always answers 204:
// view counting is best-effort and a client must never see an error for it.
// Clients without a stable device ID fall back to a fingerprint derived
// from their address and user agent.
func (s *Server) RegisterView(c *gin.Context) {
	if !s.viewLimiter.Allow(c.ClientIP()) {
		c.Status(http.StatusNoContent)
		return
	}

	var req registerViewRequest
	_ = c.ShouldBindJSON(&req)

	deviceID := strings.TrimSpace(req.DeviceID)
	if deviceID == "" {
		deviceID = fingerprint(c.ClientIP(), c.Request.UserAgent())
	}

	s.viewsSvc.RegisterView(c.Request.Context(), viewsdomain.RegisterRequest{
		ResourceID:   c.Param("id"),
		DeviceID:     deviceID,
		ViewerUserID: strings.TrimSpace(req.ViewerUserID),
	})
	c.Status(http.StatusNoContent)
}

func (s *Server) GetViewCount(c *gin.Context) {
	count, err := s.viewsSvc.Count(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resource_id": c.Param("id"), "view_count": count})
}

func fingerprint(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return "fp-" + hex.EncodeToString(sum[:8])
}
