package security

import (
	"crypto/subtle"
	"errors"

	"github.com/gorilla/securecookie"
)

// CSRFCodec issues per-session CSRF tokens and verifies the value echoed back
// in the submission form. Tokens are securecookie-encoded so they cannot be
// forged without the server-side hash key.
type CSRFCodec struct {
	codec *securecookie.SecureCookie
}

const csrfValueName = "csrf"

// NewCSRFCodec builds a codec from the configured hash key. A short key is
// rejected up front; silently truncated keys weaken the HMAC.
func NewCSRFCodec(hashKey string) (*CSRFCodec, error) {
	if len(hashKey) < 32 {
		return nil, errors.New("csrf hash key must be at least 32 bytes")
	}
	sc := securecookie.New([]byte(hashKey), nil)
	sc.SetSerializer(securecookie.JSONEncoder{})
	return &CSRFCodec{codec: sc}, nil
}

func (c *CSRFCodec) Issue(sessionID string) (string, error) {
	return c.codec.Encode(csrfValueName, sessionID)
}

// Verify decodes the echoed token and compares the embedded session binding
// in constant time.
func (c *CSRFCodec) Verify(sessionID, token string) bool {
	var decoded string
	if err := c.codec.Decode(csrfValueName, token, &decoded); err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(decoded), []byte(sessionID)) == 1
}
