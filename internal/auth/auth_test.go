package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelrouter/internal/utils"
)

func TestStaticAPIKeyStore(t *testing.T) {
	store := NewStaticAPIKeyStore([]KeyEntry{
		{ID: "key-1", Name: "editor", KeyHash: utils.HashString("sk-local-demo")},
		{ID: "key-2", Name: "old", KeyHash: utils.HashString("sk-revoked"), Revoked: true},
	})
	ctx := context.Background()

	t.Run("known key", func(t *testing.T) {
		rec, err := store.Lookup(ctx, "sk-local-demo")
		require.NoError(t, err)
		assert.Equal(t, "key-1", rec.ID)
		assert.False(t, rec.Revoked)
	})

	t.Run("revoked key still resolves, caller checks flag", func(t *testing.T) {
		rec, err := store.Lookup(ctx, "sk-revoked")
		require.NoError(t, err)
		assert.True(t, rec.Revoked)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := store.Lookup(ctx, "sk-nope")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})
}

func TestAdminCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)

	admin := &Admin{Username: "ops", PasswordHash: hash}

	assert.NoError(t, admin.CheckPassword("ops", "hunter2"))
	assert.ErrorIs(t, admin.CheckPassword("ops", "wrong"), ErrBadCredentials)
	assert.ErrorIs(t, admin.CheckPassword("root", "hunter2"), ErrBadCredentials)

	unset := &Admin{}
	assert.ErrorIs(t, unset.CheckPassword("", ""), ErrBadCredentials)
}

func TestAdminJWTRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, exp, err := GenerateAdminJWT("ops", secret, time.Minute)
	require.NoError(t, err)
	assert.Greater(t, exp, time.Now().Unix())

	sub, err := ValidateAdminJWT(token, secret)
	require.NoError(t, err)
	assert.Equal(t, "ops", sub)
}

func TestAdminJWTRejectsWrongSecret(t *testing.T) {
	token, _, err := GenerateAdminJWT("ops", []byte("secret-a"), time.Minute)
	require.NoError(t, err)

	_, err = ValidateAdminJWT(token, []byte("secret-b"))
	assert.Error(t, err)
}

func TestAdminJWTRejectsExpired(t *testing.T) {
	token, _, err := GenerateAdminJWT("ops", []byte("secret"), -time.Minute)
	require.NoError(t, err)

	_, err = ValidateAdminJWT(token, []byte("secret"))
	assert.Error(t, err)
}

func TestAdminJWTRejectsGarbage(t *testing.T) {
	_, err := ValidateAdminJWT("not-a-token", []byte("secret"))
	assert.Error(t, err)
}
