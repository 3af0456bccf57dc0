package security

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/placemesh/listing-intake-service/internal/domain"
)

func TestTimingTokenRoundTrip(t *testing.T) {
	t.Parallel()

	codec := NewTimingToken("form-secret", 3*time.Second, 24*time.Hour)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := codec.Issue(issued)

	if err := codec.Verify(token, issued.Add(10*time.Second)); err != nil {
		t.Fatalf("verify after 10s failed: %v", err)
	}
	if err := codec.Verify(token, issued.Add(3*time.Second)); err != nil {
		t.Fatalf("verify at exact minimum failed: %v", err)
	}
	if err := codec.Verify(token, issued.Add(24*time.Hour)); err != nil {
		t.Fatalf("verify at exact maximum failed: %v", err)
	}
}

func TestTimingTokenWindowViolations(t *testing.T) {
	t.Parallel()

	codec := NewTimingToken("form-secret", 3*time.Second, 24*time.Hour)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	token := codec.Issue(issued)

	if err := codec.Verify(token, issued.Add(time.Second)); !errors.Is(err, domain.ErrTokenTooFast) {
		t.Fatalf("expected too-fast rejection, got %v", err)
	}
	if err := codec.Verify(token, issued.Add(24*time.Hour+time.Second)); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected expired rejection, got %v", err)
	}
	if err := codec.Verify(token, issued.Add(-time.Minute)); !errors.Is(err, domain.ErrTokenFuture) {
		t.Fatalf("expected future rejection, got %v", err)
	}
}

func TestTimingTokenMalformedInputs(t *testing.T) {
	t.Parallel()

	codec := NewTimingToken("form-secret", 3*time.Second, 24*time.Hour)
	now := time.Now().UTC()

	if err := codec.Verify("%%%not-base64%%%", now); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected malformed for invalid base64, got %v", err)
	}
	noSeparator := base64.StdEncoding.EncodeToString([]byte("1234567890"))
	if err := codec.Verify(noSeparator, now); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected malformed for missing separator, got %v", err)
	}
	extraParts := base64.StdEncoding.EncodeToString([]byte("123|abc|def"))
	if err := codec.Verify(extraParts, now); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Fatalf("expected malformed for extra separator, got %v", err)
	}
}

func TestTimingTokenSignatureChecks(t *testing.T) {
	t.Parallel()

	codec := NewTimingToken("form-secret", 3*time.Second, 24*time.Hour)
	other := NewTimingToken("different-secret", 3*time.Second, 24*time.Hour)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	foreign := other.Issue(issued)
	if err := codec.Verify(foreign, issued.Add(time.Minute)); !errors.Is(err, domain.ErrTokenSignature) {
		t.Fatalf("expected signature rejection for foreign secret, got %v", err)
	}

	// Re-signing a forged timestamp with the wrong key must fail even when
	// the structure is valid.
	forged := base64.StdEncoding.EncodeToString([]byte("1767225600|" + "00" + "deadbeef"))
	if err := codec.Verify(forged, issued); !errors.Is(err, domain.ErrTokenSignature) {
		t.Fatalf("expected signature rejection for forged token, got %v", err)
	}
}
