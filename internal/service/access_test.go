package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"docvault/internal/apperr"
	"docvault/internal/auth"
)

func newAccess(t *testing.T, code string) *AccessService {
	t.Helper()
	hash := ""
	if code != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.MinCost)
		require.NoError(t, err)
		hash = string(h)
	}
	gate, err := auth.NewGate(hash)
	require.NoError(t, err)
	return NewAccessService(gate, auth.NewTokenManager("secret", time.Hour))
}

func TestAccessService(t *testing.T) {
	svc := newAccess(t, "123456")
	ctx := context.Background()

	assert.True(t, svc.Enabled())

	_, err := svc.Login(ctx, "12")
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.Login(ctx, "654321")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)

	sess, err := svc.Login(ctx, "123456")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.True(t, sess.ExpiresAt.After(time.Now()))

	assert.NoError(t, svc.Authorize(sess.Token))
	assert.ErrorIs(t, svc.Authorize(""), apperr.ErrUnauthorized)
	assert.ErrorIs(t, svc.Authorize("forged"), apperr.ErrUnauthorized)
}

func TestAccessService_Disabled(t *testing.T) {
	svc := newAccess(t, "")

	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.Authorize(""))
}
