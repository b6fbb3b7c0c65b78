// Package session implements the server-side session store: opaque
// client-held tokens mapped to authenticated identities with a TTL.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned for absent or expired tokens.
var ErrNotFound = errors.New("session not found")

// Session is the server-side record referenced by a client token.
type Session struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists sessions keyed by opaque token.
type Store interface {
	// Create establishes a session and returns its token.
	Create(ctx context.Context, userID int64, username string) (string, error)
	// Get resolves a token, refreshing the lifetime when the store is
	// configured for sliding expiry.
	Get(ctx context.Context, token string) (*Session, error)
	// Delete tears the session down. Deleting an absent token is not an
	// error; only a backend failure is.
	Delete(ctx context.Context, token string) error
	// Close releases backend resources.
	Close() error
}

// newToken returns 256 bits of randomness as hex. The token carries no
// claims; everything lives server-side.
func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
