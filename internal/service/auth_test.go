package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/allevo/cloud-store/internal/auth"
	"github.com/allevo/cloud-store/internal/credential"
	"github.com/allevo/cloud-store/internal/metrics"
	"github.com/allevo/cloud-store/internal/model"
)

type failingLookup struct{ err error }

func (f failingLookup) FindCredentials(context.Context, string, string) (*model.UserProfile, error) {
	return nil, f.err
}

func newTestAuthService(t *testing.T, lookup credential.Lookup) (*AuthService, *auth.TokenService, *metrics.InMemoryRecorder) {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-that-is-long-enough", "cloud-store", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService failed: %v", err)
	}
	recorder := metrics.NewInMemory()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(lookup, tokens, recorder, logger), tokens, recorder
}

func TestLogin_Success(t *testing.T) {
	svc, tokens, recorder := newTestAuthService(t, credential.NewStatic(credential.DefaultAccounts))

	token, err := svc.Login(context.Background(), "allevo", "pwd")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	identity, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if identity.SubjectID != "allevo" || identity.DisplayName != "Tommaso Allevi" || !identity.IsAdmin() {
		t.Errorf("identity = %+v", identity)
	}
	if got := recorder.Snapshot().LoginsSucceeded; got != 1 {
		t.Errorf("LoginsSucceeded = %d, want 1", got)
	}
}

func TestLogin_Rejected(t *testing.T) {
	svc, _, recorder := newTestAuthService(t, credential.NewStatic(credential.DefaultAccounts))

	tests := []struct {
		name     string
		username string
		password string
		wantKind Kind
	}{
		{"wrong password", "allevo", "nope", KindForbidden},
		{"unknown user", "ghost", "pwd", KindForbidden},
		{"empty username", "", "pwd", KindInvalidInput},
		{"empty password", "allevo", "", KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.Login(context.Background(), tt.username, tt.password)
			if token != "" {
				t.Error("expected no token")
			}
			if KindOf(err) != tt.wantKind {
				t.Errorf("kind = %s, want %s (err %v)", KindOf(err), tt.wantKind, err)
			}
		})
	}

	if got := recorder.Snapshot().LoginsFailed; got != 2 {
		t.Errorf("LoginsFailed = %d, want 2", got)
	}
}

func TestLogin_ForbiddenMessage(t *testing.T) {
	svc, _, _ := newTestAuthService(t, credential.NewStatic(credential.DefaultAccounts))

	_, err := svc.Login(context.Background(), "foobar", "wrong")
	if err == nil || err.Error() != "No user found" {
		t.Errorf("err = %v, want %q", err, "No user found")
	}
}

func TestLogin_LookupFailure(t *testing.T) {
	boom := errors.New("connection refused")
	svc, _, _ := newTestAuthService(t, failingLookup{err: boom})

	_, err := svc.Login(context.Background(), "allevo", "pwd")
	if !errors.Is(err, boom) {
		t.Fatalf("expected lookup error in chain, got %v", err)
	}
	if KindOf(err) != 0 {
		t.Errorf("infrastructure failure reported as %s", KindOf(err))
	}
}
