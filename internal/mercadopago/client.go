// Package mercadopago is a minimal client for the two provider operations
// the service needs: creating a checkout preference and re-fetching the
// authoritative state of a payment.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pedraum/payments/internal/config"
	"github.com/pedraum/payments/internal/observability/logger"
	"github.com/pedraum/payments/internal/observability/tracing"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable covers transport failures and non-2xx provider
	// responses.
	ErrUnavailable = errors.New("provider_unavailable")
	// ErrMalformedResponse means the provider answered 2xx without the
	// fields the flow depends on.
	ErrMalformedResponse = errors.New("provider_malformed_response")
	ErrPaymentNotFound   = errors.New("payment_not_found")
)

type PreferenceItem struct {
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return,omitempty"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url"`
}

type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Payment is the authoritative payment state as returned by
// GET /v1/payments/{id}.
type Payment struct {
	ID                int64  `json:"id"`
	Status            string `json:"status"`
	StatusDetail      string `json:"status_detail"`
	ExternalReference string `json:"external_reference"`
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.MercadoPago.BaseURL, "/"),
		token:   cfg.MercadoPago.AccessToken,
		http:    tracing.WrapHTTPClient(&http.Client{Timeout: cfg.MercadoPago.Timeout}),
		log:     log.Named("mercadopago.client"),
	}
}

// CreatePreference registers a checkout preference and returns the
// redirect target for the buyer.
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/preferences", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.decorate(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.logErrorBody("create preference", resp)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var pref Preference
	if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if strings.TrimSpace(pref.InitPoint) == "" {
		return nil, fmt.Errorf("%w: missing init_point", ErrMalformedResponse)
	}
	return &pref, nil
}

// GetPayment re-fetches a payment directly from the provider. Webhook
// payloads are never trusted for status; this call is the integrity
// guarantee of the reconciliation flow.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return nil, fmt.Errorf("%w: empty payment id", ErrPaymentNotFound)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+paymentID, nil)
	if err != nil {
		return nil, err
	}
	c.decorate(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrPaymentNotFound
	}
	if resp.StatusCode != http.StatusOK {
		c.logErrorBody("get payment", resp)
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payment Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payment.Status == "" {
		return nil, fmt.Errorf("%w: missing status", ErrMalformedResponse)
	}
	return &payment, nil
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// logErrorBody records a non-2xx provider response. The request URL and
// headers go through masking so the access token never lands in the log
// stream.
func (c *Client) logErrorBody(op string, resp *http.Response) {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	fields := []zap.Field{
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.ByteString("body", body),
	}
	if req := resp.Request; req != nil {
		fields = append(fields,
			zap.String("url", logger.MaskURL(req.URL.String())),
			zap.Any("request_headers", logger.MaskHeaders(req.Header)),
		)
	}
	c.log.Warn("provider error response", fields...)
}
