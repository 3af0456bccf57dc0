package security

import "testing"

const testHashKey = "0123456789abcdef0123456789abcdef"

func TestCSRFCodecRoundTrip(t *testing.T) {
	t.Parallel()

	codec, err := NewCSRFCodec(testHashKey)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	token, err := codec.Issue("scope-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !codec.Verify("scope-1", token) {
		t.Fatalf("expected token to verify for its own scope")
	}
	if codec.Verify("scope-2", token) {
		t.Fatalf("token must not verify for a different scope")
	}
	if codec.Verify("scope-1", "garbage") {
		t.Fatalf("garbage token must not verify")
	}
}

func TestCSRFCodecRejectsShortKey(t *testing.T) {
	t.Parallel()

	if _, err := NewCSRFCodec("too-short"); err == nil {
		t.Fatalf("expected short hash key to be rejected")
	}
}
