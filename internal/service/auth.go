package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/allevo/cloud-store/internal/credential"
	"github.com/allevo/cloud-store/internal/metrics"
	"github.com/allevo/cloud-store/internal/model"
)

// TokenIssuer signs identity tokens for authenticated users.
type TokenIssuer interface {
	Issue(profile *model.UserProfile) (string, error)
}

// AuthService exchanges credentials for identity tokens.
type AuthService struct {
	lookup  credential.Lookup
	issuer  TokenIssuer
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(lookup credential.Lookup, issuer TokenIssuer, recorder metrics.Recorder, logger *slog.Logger) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		lookup:  lookup,
		issuer:  issuer,
		metrics: recorder,
		logger:  logger.With("component", "service.auth"),
	}
}

// Login verifies username and password and returns a signed token.
// Unknown users and wrong passwords both yield a Forbidden error.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", InvalidInput("username and password are required")
	}

	profile, err := s.lookup.FindCredentials(ctx, username, password)
	if err != nil {
		s.metrics.IncLogin(metrics.OutcomeFailure)
		if errors.Is(err, credential.ErrNotFound) {
			s.logger.Info("login_rejected", "username", username)
			return "", &Error{Kind: KindForbidden, Message: "No user found", Err: err}
		}
		return "", fmt.Errorf("lookup credentials: %w", err)
	}

	token, err := s.issuer.Issue(profile)
	if err != nil {
		s.metrics.IncLogin(metrics.OutcomeFailure)
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.metrics.IncLogin(metrics.OutcomeSuccess)
	s.logger.Info("login_succeeded", "username", profile.Username)
	return token, nil
}
