package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docvault/internal/apperr"
	"docvault/internal/auth"
)

// Session is an issued access token.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AccessService exchanges the shared access code for session tokens.
type AccessService struct {
	gate   *auth.Gate
	tokens *auth.TokenManager
}

// NewAccessService constructs an AccessService.
func NewAccessService(gate *auth.Gate, tokens *auth.TokenManager) *AccessService {
	return &AccessService{gate: gate, tokens: tokens}
}

// Enabled reports whether requests need a session.
func (s *AccessService) Enabled() bool { return s != nil && s.gate.Enabled() }

// Login verifies code and issues a session.
func (s *AccessService) Login(_ context.Context, code string) (*Session, error) {
	if err := s.gate.Verify(code); err != nil {
		if errors.Is(err, auth.ErrMalformedCode) {
			return nil, apperr.Validation("code: must be 6 digits")
		}
		return nil, apperr.Clone(apperr.ErrUnauthorized, "invalid access code")
	}
	token, exp, err := s.tokens.Issue()
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrInternal, fmt.Errorf("issue session: %w", err))
	}
	return &Session{Token: token, ExpiresAt: exp}, nil
}

// Authorize checks a session token. Everything passes when the gate is off.
func (s *AccessService) Authorize(token string) error {
	if !s.Enabled() {
		return nil
	}
	if token == "" {
		return apperr.Clone(apperr.ErrUnauthorized, "access code required")
	}
	if err := s.tokens.Verify(token); err != nil {
		return apperr.Clone(apperr.ErrUnauthorized, "session expired or invalid")
	}
	return nil
}
