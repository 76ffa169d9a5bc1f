package jwtinfra

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/staysquare/api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKeyPair(t *testing.T) (privPath, pubPath string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	privPath = filepath.Join(dir, "private.pem")
	pubPath = filepath.Join(dir, "public.pem")

	privPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	require.NoError(t, os.WriteFile(privPath, privPEM, 0o600))

	pubBytes, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})
	require.NoError(t, os.WriteFile(pubPath, pubPEM, 0o644))
	return privPath, pubPath
}

func newTestProvider(t *testing.T, expiry time.Duration) *Provider {
	t.Helper()
	privPath, pubPath := writeKeyPair(t)
	p, err := NewProvider(&config.Config{
		JWTPrivateKeyPath: privPath,
		JWTPublicKeyPath:  pubPath,
		SessionExpiry:     expiry,
	})
	require.NoError(t, err)
	return p
}

func TestSignVerifyRoundTrip(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	token, err := p.Sign("identity-42")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := p.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "identity-42", claims.IdentityID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	p := newTestProvider(t, -time.Minute)

	token, err := p.Sign("identity-42")
	require.NoError(t, err)

	_, err = p.Verify(token)
	assert.Error(t, err)
}

func TestVerify_RejectsTamperedToken(t *testing.T) {
	p := newTestProvider(t, time.Hour)

	token, err := p.Sign("identity-42")
	require.NoError(t, err)

	_, err = p.Verify(token + "x")
	assert.Error(t, err)
}

func TestVerify_RejectsTokenFromOtherKey(t *testing.T) {
	p1 := newTestProvider(t, time.Hour)
	p2 := newTestProvider(t, time.Hour)

	token, err := p1.Sign("identity-42")
	require.NoError(t, err)

	_, err = p2.Verify(token)
	assert.Error(t, err)
}

func TestNewProvider_MissingKeyFile(t *testing.T) {
	_, err := NewProvider(&config.Config{
		JWTPrivateKeyPath: "/nonexistent/private.pem",
		JWTPublicKeyPath:  "/nonexistent/public.pem",
	})
	assert.Error(t, err)
}
