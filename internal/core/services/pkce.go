package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net"
)

// PKCE code verifier length in random bytes (RFC 7636 wants 43-128 characters).
const codeVerifierLength = 64

// pkcePair is a code verifier and its S256 challenge.
type pkcePair struct {
	Verifier  string
	Challenge string
}

// newPKCE creates a random verifier and its challenge.
func newPKCE() (pkcePair, error) {
	verifier, err := randomToken(codeVerifierLength)
	if err != nil {
		return pkcePair{}, fmt.Errorf("generate code verifier: %w", err)
	}
	return pkcePair{Verifier: verifier, Challenge: codeChallenge(verifier)}, nil
}

// codeChallenge is base64url(sha256(verifier)) without padding.
func codeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// newState creates a random state parameter for CSRF protection.
func newState() (string, error) {
	state, err := randomToken(32)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	return state, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// findCallbackPort returns the first loopback port in [start, end] that can be bound.
func findCallbackPort(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		l, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
		if err == nil {
			_ = l.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no free callback port in %d-%d", start, end)
}
