package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/careline/voice-gateway/internal/config"
)

func newValidator(url string) *HTTPValidator {
	return NewHTTPValidator(&config.Config{AuthURL: url, AuthTimeout: 5}, zerolog.Nop())
}

func TestHTTPValidator_ResolvesIdentity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			t.Errorf("Missing bearer header, got %q", r.Header.Get("Authorization"))
		}
		json.NewEncoder(w).Encode(map[string]string{
			"user_id":    "u-1",
			"patient_id": "p-9",
			"name":       "Alex",
		})
	}))
	defer server.Close()

	identity, err := newValidator(server.URL).Validate(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if identity == nil || identity.PatientID != "p-9" || identity.Name != "Alex" {
		t.Errorf("Unexpected identity: %+v", identity)
	}
}

func TestHTTPValidator_RejectedTokenIsAnonymous(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer server.Close()

	identity, err := newValidator(server.URL).Validate(context.Background(), "bad")
	if err != nil {
		t.Fatalf("Rejection should not be an error: %v", err)
	}
	if identity != nil {
		t.Errorf("Expected nil identity for rejected token, got %+v", identity)
	}
}

func TestHTTPValidator_EmptyToken(t *testing.T) {
	identity, err := newValidator("http://unused.invalid").Validate(context.Background(), "")
	if err != nil {
		t.Fatalf("Empty token should not be an error: %v", err)
	}
	if identity != nil {
		t.Errorf("Expected nil identity for empty token")
	}
}

func TestHTTPValidator_ServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := newValidator(server.URL).Validate(context.Background(), "tok"); err == nil {
		t.Fatal("Expected error for 500 from auth service")
	}
}

func TestNewHTTPValidator_DisabledWithoutURL(t *testing.T) {
	if v := NewHTTPValidator(&config.Config{}, zerolog.Nop()); v != nil {
		t.Error("Expected nil validator when AUTH_URL is unset")
	}
}
