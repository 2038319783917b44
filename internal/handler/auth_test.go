package handler

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/allevo/cloud-store/internal/auth"
	"github.com/allevo/cloud-store/internal/credential"
	"github.com/allevo/cloud-store/internal/handler/dto"
	"github.com/allevo/cloud-store/internal/service"
)

func newAuthHandler(t *testing.T) (*AuthHandler, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-with-enough-entropy-123", "cloud-store", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	svc := service.NewAuthService(credential.NewStatic(credential.DefaultAccounts), tokens, nil, discardLogger())
	return NewAuthHandler(svc, discardLogger()), tokens
}

func TestAuthHandler_Login(t *testing.T) {
	h, tokens := newAuthHandler(t)

	rec := serve(http.HandlerFunc(h.Login), http.MethodPost, "/auth/login", `{"username":"allevo","password":"pwd"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp dto.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	identity, err := tokens.Verify(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if identity.SubjectID != "allevo" || !identity.IsAdmin() {
		t.Errorf("identity = %+v", identity)
	}
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	h, _ := newAuthHandler(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"wrong password", `{"username":"allevo","password":"nope"}`, http.StatusForbidden, "FORBIDDEN"},
		{"unknown user", `{"username":"ghost","password":"pwd"}`, http.StatusForbidden, "FORBIDDEN"},
		{"empty password", `{"username":"allevo","password":""}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing fields", `{}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"malformed json", `{"username":`, http.StatusBadRequest, "INVALID_JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(http.HandlerFunc(h.Login), http.MethodPost, "/auth/login", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := decodeError(t, rec)
			if body.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", body.Code, tt.wantCode)
			}
			if tt.wantStatus == http.StatusForbidden && body.Error != "No user found" {
				t.Errorf("message = %q, want %q", body.Error, "No user found")
			}
		})
	}
}
