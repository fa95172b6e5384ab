package logger

import (
	"net/http"
	"strings"
	"testing"
)

func TestMaskAuthorization(t *testing.T) {
	got := MaskAuthorization("Bearer abcdef1234")
	want := "Bearer ****1234"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestMaskHeaders(t *testing.T) {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer APP_USR-12345678")
	headers.Set("Content-Type", "application/json")

	masked := MaskHeaders(headers)
	if masked["Authorization"] != "Bearer ****5678" {
		t.Fatalf("expected masked authorization, got %q", masked["Authorization"])
	}
	if masked["Content-Type"] != "application/json" {
		t.Fatalf("expected content type untouched, got %q", masked["Content-Type"])
	}
}

func TestMaskURLStripsAccessToken(t *testing.T) {
	got := MaskURL("https://api.mercadopago.com/v1/payments/1?access_token=APP_USR-secret99")
	if strings.Contains(got, "secret") {
		t.Fatalf("expected token masked, got %q", got)
	}
	if !strings.Contains(got, "et99") {
		t.Fatalf("expected masked suffix preserved, got %q", got)
	}
}

func TestMaskURLPassesThroughInvalid(t *testing.T) {
	raw := "://not-a-url"
	if got := MaskURL(raw); got != raw {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
