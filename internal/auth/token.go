package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"spendtrack/internal/core"
)

// NewID returns a 16-byte random hex identifier.
func NewID() string {
	return randomHex(16)
}

// NewSessionToken returns a 32-byte random hex token.
func NewSessionToken() string {
	return randomHex(32)
}

// NewSession creates a session for the user with a fresh token, expiring
// after the given duration.
func NewSession(userID string, duration time.Duration) core.Session {
	return core.Session{
		Token:     NewSessionToken(),
		UserID:    userID,
		ExpiresAt: time.Now().Add(duration),
	}
}

func randomHex(n int) string {
	buf := make([]byte, n)
	// rand.Read never fails on supported platforms.
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}
