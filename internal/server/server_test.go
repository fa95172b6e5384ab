package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/pedraum/payments/internal/checkout/domain"
	orderdomain "github.com/pedraum/payments/internal/order/domain"
	pricingdomain "github.com/pedraum/payments/internal/pricing/domain"
	reconciledomain "github.com/pedraum/payments/internal/reconcile/domain"
	viewsdomain "github.com/pedraum/payments/internal/views/domain"
)

type fakeCheckout struct {
	resp *checkoutdomain.CreateResponse
	err  error
	last checkoutdomain.CreateRequest
}

func (f *fakeCheckout) Create(_ context.Context, req checkoutdomain.CreateRequest) (*checkoutdomain.CreateResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

type fakeOrders struct {
	order *orderdomain.Order
	list  []orderdomain.Order
	err   error
}

func (f *fakeOrders) Get(_ context.Context, _ string) (*orderdomain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

func (f *fakeOrders) ListByBuyer(_ context.Context, _ string) ([]orderdomain.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

type fakeAccess struct {
	err      error
	unlocked bool
	calls    int
}

func (f *fakeAccess) Unlock(_ context.Context, _, _, _ string) error {
	f.calls++
	return f.err
}

func (f *fakeAccess) IsUnlocked(_ context.Context, _, _ string) (bool, error) {
	return f.unlocked, nil
}

type fakeReconciler struct {
	result reconciledomain.Result
	last   reconciledomain.Notification
	calls  int
}

func (f *fakeReconciler) Process(_ context.Context, n reconciledomain.Notification) reconciledomain.Result {
	f.calls++
	f.last = n
	return f.result
}

type fakeRecorder struct {
	last  viewsdomain.RegisterRequest
	calls int
	count int64
}

func (f *fakeRecorder) RegisterView(_ context.Context, req viewsdomain.RegisterRequest) bool {
	f.calls++
	f.last = req
	return true
}

func (f *fakeRecorder) Count(_ context.Context, _ string) (int64, error) {
	return f.count, nil
}

type serverFixture struct {
	engine    *gin.Engine
	checkout  *fakeCheckout
	orders    *fakeOrders
	access    *fakeAccess
	reconcile *fakeReconciler
	views     *fakeRecorder
}

func newTestServer(t *testing.T) *serverFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &serverFixture{
		checkout:  &fakeCheckout{},
		orders:    &fakeOrders{},
		access:    &fakeAccess{},
		reconcile: &fakeReconciler{},
		views:     &fakeRecorder{},
	}
	srv := &Server{
		checkoutSvc: f.checkout,
		orderSvc:    f.orders,
		accessSvc:   f.access,
		reconcile:   f.reconcile,
		viewsSvc:    f.views,
		viewLimiter: newRateLimiter(1000, time.Minute),
	}
	f.engine = gin.New()
	srv.RegisterAPIRoutes(f.engine)
	return f
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestCreateCheckoutHandler(t *testing.T) {
	f := newTestServer(t)
	f.checkout.resp = &checkoutdomain.CreateResponse{
		OrderID:     "42",
		RedirectURL: "https://mp.example/init/1",
		Amount:      50,
		Currency:    "BRL",
	}

	rec := doJSON(t, f.engine, http.MethodPost, "/api/checkout", gin.H{
		"resource_kind": "lead",
		"resource_id":   "L1",
		"buyer_id":      "U1",
		"title":         "Lead: peneira",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["redirect_url"] != "https://mp.example/init/1" {
		t.Fatalf("unexpected body %v", body)
	}
	if f.checkout.last.ResourceID != "L1" || f.checkout.last.BuyerID != "U1" {
		t.Fatalf("request not forwarded: %+v", f.checkout.last)
	}
}

func TestCreateCheckoutHandlerErrors(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.engine, http.MethodPost, "/api/checkout", gin.H{"resource_kind": "lead"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing resource id, got %d", rec.Code)
	}

	f.checkout.err = pricingdomain.ErrPriceNotFound
	rec = doJSON(t, f.engine, http.MethodPost, "/api/checkout", gin.H{
		"resource_kind": "lead", "resource_id": "L1", "buyer_id": "U1", "title": "x",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for missing price, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	errObj, _ := body["error"].(map[string]any)
	if errObj["code"] != "price_not_found" {
		t.Fatalf("unexpected error body %v", body)
	}

	f.checkout.err = orderdomain.ErrInvalidResourceKind
	rec = doJSON(t, f.engine, http.MethodPost, "/api/checkout", gin.H{
		"resource_kind": "machine", "resource_id": "L1", "buyer_id": "U1", "title": "x",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad kind, got %d", rec.Code)
	}
}

func TestWebhookQueryShape(t *testing.T) {
	f := newTestServer(t)
	f.reconcile.result = reconciledomain.Result{Outcome: reconciledomain.OutcomeApplied}

	rec := doJSON(t, f.engine, http.MethodPost, "/api/webhooks/mercadopago?topic=payment&id=987654", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["received"] != true {
		t.Fatalf("expected received ack, got %v", body)
	}
	if f.reconcile.last.Topic != "payment" || f.reconcile.last.PaymentID != "987654" {
		t.Fatalf("notification not forwarded: %+v", f.reconcile.last)
	}
}

func TestWebhookBodyShape(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.engine, http.MethodPost, "/api/webhooks/mercadopago", gin.H{
		"type": "payment",
		"data": gin.H{"id": 987654},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if f.reconcile.last.Topic != "payment" || f.reconcile.last.PaymentID != "987654" {
		t.Fatalf("notification not forwarded: %+v", f.reconcile.last)
	}
	if f.reconcile.last.Raw == nil {
		t.Fatalf("expected raw payload captured")
	}
}

func TestWebhookAlwaysAcknowledges(t *testing.T) {
	f := newTestServer(t)
	f.reconcile.result = reconciledomain.Result{Outcome: reconciledomain.OutcomeError, Detail: "fetch payment: unavailable"}

	rec := doJSON(t, f.engine, http.MethodPost, "/api/webhooks/mercadopago?topic=payment&id=987654", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on reconcile failure, got %d", rec.Code)
	}

	// Garbage bodies are acknowledged too.
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago", bytes.NewReader([]byte("not json")))
	rec2 := httptest.NewRecorder()
	f.engine.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on malformed body, got %d", rec2.Code)
	}
}

func TestUnlockAccessHandler(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.engine, http.MethodPost, "/api/access/unlock", gin.H{
		"resource_id": "L1", "consumer_id": "U1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["ok"] != true {
		t.Fatalf("expected ok=true, got %v", body)
	}
	if f.access.calls != 1 {
		t.Fatalf("expected unlock call, got %d", f.access.calls)
	}
}

func TestUnlockAccessStorageFailureAnswersOKFalse(t *testing.T) {
	f := newTestServer(t)
	f.access.err = context.DeadlineExceeded

	rec := doJSON(t, f.engine, http.MethodPost, "/api/access/unlock", gin.H{
		"resource_id": "L1", "consumer_id": "U1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["ok"] != false {
		t.Fatalf("expected ok=false, got %v", body)
	}
}

func TestGetOrderHandlerErrors(t *testing.T) {
	f := newTestServer(t)

	f.orders.err = orderdomain.ErrInvalidOrderID
	rec := doJSON(t, f.engine, http.MethodGet, "/api/orders/abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	f.orders.err = orderdomain.ErrOrderNotFound
	rec = doJSON(t, f.engine, http.MethodGet, "/api/orders/42", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, f.engine, http.MethodGet, "/api/orders", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without buyer_id, got %d", rec.Code)
	}
}

func TestRegisterViewHandler(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.engine, http.MethodPost, "/api/resources/L1/views", gin.H{
		"device_id": "dev-1", "viewer_user_id": "U1",
	})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if f.views.last.ResourceID != "L1" || f.views.last.DeviceID != "dev-1" || f.views.last.ViewerUserID != "U1" {
		t.Fatalf("request not forwarded: %+v", f.views.last)
	}
}

func TestRegisterViewFingerprintFallback(t *testing.T) {
	f := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/resources/L1/views", bytes.NewReader(nil))
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if f.views.last.DeviceID == "" {
		t.Fatalf("expected fingerprint device id")
	}

	// The same client fingerprints to the same device.
	req2 := httptest.NewRequest(http.MethodPost, "/api/resources/L1/views", bytes.NewReader(nil))
	req2.Header.Set("User-Agent", "test-agent")
	rec2 := httptest.NewRecorder()
	f.engine.ServeHTTP(rec2, req2)
	if f.views.last.DeviceID == "" || f.views.calls != 2 {
		t.Fatalf("expected second view recorded")
	}
}

func TestRegisterViewRateLimited(t *testing.T) {
	f := newTestServer(t)
	srv := &Server{
		viewsSvc:    f.views,
		viewLimiter: newRateLimiter(1, time.Minute),
	}
	engine := gin.New()
	engine.POST("/api/resources/:id/views", srv.RegisterView)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, engine, http.MethodPost, "/api/resources/L1/views", gin.H{"device_id": "dev-1"})
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204 even when limited, got %d", rec.Code)
		}
	}
	if f.views.calls != 1 {
		t.Fatalf("expected one recorded view, got %d", f.views.calls)
	}
}

func TestGetViewCountHandler(t *testing.T) {
	f := newTestServer(t)
	f.views.count = 7

	rec := doJSON(t, f.engine, http.MethodGet, "/api/resources/L1/views", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["view_count"] != float64(7) {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestCheckAccessHandler(t *testing.T) {
	f := newTestServer(t)
	f.access.unlocked = true

	rec := doJSON(t, f.engine, http.MethodGet, "/api/access/L1/U1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["unlocked"] != true {
		t.Fatalf("expected unlocked=true, got %v", body)
	}
}
