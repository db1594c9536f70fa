// Package authtest signs tokens and serves a JWKS for tests.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zhouzirui/rizzmate/backend/internal/auth"
)

// Issuer is the issuer trusted by verifiers from NewVerifier.
const Issuer = "https://clerk.rizzmate.test"

// Key is an RSA signing key with a key id.
type Key struct {
	key *rsa.PrivateKey
	kid string
}

// NewKey generates a fresh signing key.
func NewKey(t testing.TB) *Key {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to create key: %v", err)
	}
	return &Key{key: key, kid: "test-key"}
}

// ServeJWKS serves key's JWKS from an httptest server and returns its URL.
func ServeJWKS(t testing.TB, key *Key) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{key.jwk()}})
	}))
	t.Cleanup(server.Close)
	return server.URL
}

// NewVerifier returns a verifier trusting Issuer and key.
func NewVerifier(t testing.TB, key *Key) *auth.Verifier {
	t.Helper()
	verifier, err := auth.NewVerifier(Issuer, "", ServeJWKS(t, key))
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	return verifier
}

// Sign issues a token for subject. Empty email or name are omitted.
func (k *Key) Sign(t testing.TB, issuer, subject, email, name string) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": issuer,
		"sub": subject,
		"exp": now.Add(10 * time.Minute).Unix(),
		"iat": now.Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	if name != "" {
		claims["name"] = name
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = k.kid
	signed, err := token.SignedString(k.key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func (k *Key) jwk() map[string]string {
	return map[string]string{
		"kty": "RSA",
		"kid": k.kid,
		"use": "sig",
		"alg": "RS256",
		"n":   base64.RawURLEncoding.EncodeToString(k.key.PublicKey.N.Bytes()),
		"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(k.key.PublicKey.E)).Bytes()),
	}
}
