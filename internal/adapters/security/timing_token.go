package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/placemesh/listing-intake-service/internal/domain"
)

// TimingToken issues and verifies the signed form-render timestamp used to
// detect bot-speed submissions. Wire format:
//
//	base64("<unix_seconds>|" + hex(HMAC-SHA256(secret, unix_seconds)))
//
// Verification is stateless; the signature re-derives from the shared secret.
type TimingToken struct {
	secret     []byte
	minElapsed time.Duration
	maxAge     time.Duration
}

// NewTimingToken builds a codec with default windows applied to non-positive inputs.
func NewTimingToken(secret string, minElapsed, maxAge time.Duration) *TimingToken {
	if minElapsed <= 0 {
		minElapsed = 3 * time.Second
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &TimingToken{
		secret:     []byte(secret),
		minElapsed: minElapsed,
		maxAge:     maxAge,
	}
}

func (t *TimingToken) Issue(now time.Time) string {
	stamp := strconv.FormatInt(now.UTC().Unix(), 10)
	return base64.StdEncoding.EncodeToString([]byte(stamp + "|" + t.sign(stamp)))
}

// Verify checks structure, signature and the elapsed-time window.
// The signature comparison is constant-time; callers must collapse every
// returned reason to one generic message before it reaches a submitter.
func (t *TimingToken) Verify(raw string, now time.Time) error {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil {
		return domain.ErrTokenMalformed
	}
	parts := strings.Split(string(decoded), "|")
	if len(parts) != 2 {
		return domain.ErrTokenMalformed
	}
	stamp, signature := parts[0], parts[1]

	if !hmac.Equal([]byte(signature), []byte(t.sign(stamp))) {
		return domain.ErrTokenSignature
	}

	issuedAt, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return domain.ErrTokenMalformed
	}
	elapsed := now.UTC().Unix() - issuedAt
	switch {
	case elapsed < 0:
		return domain.ErrTokenFuture
	case elapsed > int64(t.maxAge.Seconds()):
		return domain.ErrTokenExpired
	case elapsed < int64(t.minElapsed.Seconds()):
		return domain.ErrTokenTooFast
	}
	return nil
}

func (t *TimingToken) sign(stamp string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(stamp))
	return hex.EncodeToString(mac.Sum(nil))
}
