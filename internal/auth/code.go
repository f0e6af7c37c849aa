// Package auth implements the shared access-code gate and the session tokens
// issued once the code is accepted.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CodeLength is the number of digits in an access code.
const CodeLength = 6

var (
	// ErrMalformedCode means the code is not exactly six ASCII digits.
	ErrMalformedCode = errors.New("access code must be 6 digits")
	// ErrInvalidCode means the code does not match the configured hash.
	ErrInvalidCode = errors.New("invalid access code")
)

// ValidCode reports whether code has the expected shape.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// HashCode returns a bcrypt hash suitable for ACCESS_CODE_HASH.
func HashCode(code string) (string, error) {
	if !ValidCode(code) {
		return "", ErrMalformedCode
	}
	h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash access code: %w", err)
	}
	return string(h), nil
}

// Gate checks submitted codes against a bcrypt hash. A Gate without a hash
// is disabled and lets everyone through.
type Gate struct {
	hash []byte
}

// NewGate builds a Gate from a bcrypt hash; an empty hash disables it.
func NewGate(hash string) (*Gate, error) {
	if hash == "" {
		return &Gate{}, nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("parse access code hash: %w", err)
	}
	return &Gate{hash: []byte(hash)}, nil
}

// Enabled reports whether a code is required.
func (g *Gate) Enabled() bool { return g != nil && len(g.hash) > 0 }

// Verify checks code against the configured hash.
func (g *Gate) Verify(code string) error {
	if !g.Enabled() {
		return nil
	}
	if !ValidCode(code) {
		return ErrMalformedCode
	}
	if err := bcrypt.CompareHashAndPassword(g.hash, []byte(code)); err != nil {
		return ErrInvalidCode
	}
	return nil
}
