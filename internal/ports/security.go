package ports

import (
	"time"

	"github.com/google/uuid"
)

// SessionClaims is the identity the session layer hands to this pipeline.
type SessionClaims struct {
	UserID    uuid.UUID `json:"user_id"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionVerifier parses and validates the caller's session token.
type SessionVerifier interface {
	ParseAndValidate(token string) (SessionClaims, error)
}

// TimingTokenCodec issues and verifies the signed timing token embedded in the
// submission form. Verification is stateless: the token re-derives entirely
// from the shared secret and the issue timestamp.
type TimingTokenCodec interface {
	Issue(now time.Time) string
	Verify(raw string, now time.Time) error
}

// ClientResolver determines the true client address from the transport peer
// address and any forwarded headers, honoring headers only when the direct
// peer is an allowlisted proxy.
type ClientResolver interface {
	Resolve(directAddr string, forwardedValues []string) string
}

// CSRFCodec issues per-session CSRF tokens and verifies the echoed form value.
type CSRFCodec interface {
	Issue(sessionID string) (string, error)
	Verify(sessionID, token string) bool
}
