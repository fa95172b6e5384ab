package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	accessdomain "github.com/pedraum/payments/internal/access/domain"
	checkoutdomain "github.com/pedraum/payments/internal/checkout/domain"
	"github.com/pedraum/payments/internal/mercadopago"
	"github.com/pedraum/payments/internal/observability/logger"
	orderdomain "github.com/pedraum/payments/internal/order/domain"
	pricingdomain "github.com/pedraum/payments/internal/pricing/domain"
	"go.uber.org/zap"
)

var ErrNotFound = errors.New("not_found")

// APIError is the wire envelope for request failures.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string { return e.Code + ": " + e.Message }

func newValidationError(field, code, message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: code, Field: field, Message: message}
}

func invalidRequestError() *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "malformed request body"}
}

// AbortWithError translates domain errors into HTTP responses. Handlers
// pass sentinels through untouched; the mapping lives here so every route
// speaks the same envelope.
func AbortWithError(c *gin.Context, err error) {
	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
}

func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case errors.Is(err, orderdomain.ErrInvalidResourceKind):
		return newValidationError("resource_kind", "invalid_resource_kind", "unknown resource kind")
	case errors.Is(err, checkoutdomain.ErrMissingResource):
		return newValidationError("resource_id", "missing_resource_id", "resource id is required")
	case errors.Is(err, checkoutdomain.ErrMissingBuyer):
		return newValidationError("buyer_id", "missing_buyer_id", "buyer id is required")
	case errors.Is(err, checkoutdomain.ErrMissingTitle):
		return newValidationError("title", "missing_title", "title is required")
	case errors.Is(err, accessdomain.ErrInvalidUnlock):
		return newValidationError("resource_id", "invalid_unlock", "resource id and consumer id are required")
	case errors.Is(err, orderdomain.ErrInvalidOrderID):
		return newValidationError("order_id", "invalid_order_id", "invalid order id")
	case errors.Is(err, pricingdomain.ErrInvalidResource):
		return newValidationError("resource_id", "invalid_resource_id", "resource id is required")
	case errors.Is(err, pricingdomain.ErrPriceNotFound):
		return &APIError{Status: http.StatusUnprocessableEntity, Code: "price_not_found", Message: "no usable price found for resource"}
	case errors.Is(err, orderdomain.ErrOrderNotFound), errors.Is(err, ErrNotFound):
		return &APIError{Status: http.StatusNotFound, Code: "not_found", Message: "resource not found"}
	case errors.Is(err, mercadopago.ErrUnavailable), errors.Is(err, mercadopago.ErrMalformedResponse):
		return &APIError{Status: http.StatusBadGateway, Code: "provider_unavailable", Message: "payment provider unavailable"}
	default:
		return &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal server error"}
	}
}
