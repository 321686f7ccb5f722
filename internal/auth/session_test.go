// internal/auth/session_test.go
package auth

import (
	"crypto/ed25519"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jason-s-yu/rummy/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, key ed25519.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestPlayerIDFromTokenVerified(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	tok := sign(t, priv, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Hour).Unix()})
	id, err := PlayerIDFromToken(tok, pub)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerID("user-1"), id)

	otherPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	_, err = PlayerIDFromToken(tok, otherPub)
	assert.Error(t, err, "wrong key")

	expired := sign(t, priv, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})
	_, err = PlayerIDFromToken(expired, pub)
	assert.Error(t, err)
}

func TestPlayerIDFromTokenUnverified(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	id, err := PlayerIDFromToken(sign(t, priv, jwt.MapClaims{"sub": "user-2"}), nil)
	require.NoError(t, err)
	assert.Equal(t, models.PlayerID("user-2"), id)

	_, err = PlayerIDFromToken(sign(t, priv, jwt.MapClaims{"name": "x"}), nil)
	assert.Error(t, err, "no sub")

	_, err = PlayerIDFromToken("not-a-token", nil)
	assert.Error(t, err)
}

func TestLoadPublicKey(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	dir := t.TempDir()

	good := filepath.Join(dir, "pub.key")
	require.NoError(t, os.WriteFile(good, pub, 0o600))
	got, err := LoadPublicKey(good)
	require.NoError(t, err)
	assert.Equal(t, pub, got)

	bad := filepath.Join(dir, "short.key")
	require.NoError(t, os.WriteFile(bad, []byte("abc"), 0o600))
	_, err = LoadPublicKey(bad)
	assert.Error(t, err)
}
