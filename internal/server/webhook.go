package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reconciledomain "github.com/pedraum/payments/internal/reconcile/domain"
)

const maxWebhookBody = 64 << 10

// MercadoPagoWebhook ingests provider notifications. The provider sends two
// shapes: query parameters (?topic=payment&id=...) on older topics and a
// JSON body ({"type":"payment","data":{"id":"..."}}) on newer ones. Both
// are accepted, and the response is 200 regardless of the outcome so the
// provider never retries into an error loop.
func (s *Server) MercadoPagoWebhook(c *gin.Context) {
	notification := reconciledomain.Notification{
		Topic:     firstNonEmpty(c.Query("topic"), c.Query("type")),
		PaymentID: firstNonEmpty(c.Query("id"), c.Query("data.id")),
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err == nil && len(body) > 0 {
		var payload struct {
			Type   string `json:"type"`
			Topic  string `json:"topic"`
			Action string `json:"action"`
			Data   struct {
				ID json.Number `json:"id"`
			} `json:"data"`
		}
		if err := json.Unmarshal(body, &payload); err == nil {
			if notification.Topic == "" {
				notification.Topic = firstNonEmpty(payload.Type, payload.Topic)
			}
			if notification.PaymentID == "" {
				notification.PaymentID = payload.Data.ID.String()
			}
			raw := map[string]any{}
			if err := json.Unmarshal(body, &raw); err == nil {
				notification.Raw = raw
			}
		}
	}

	s.reconcile.Process(c.Request.Context(), notification)
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
