package schema

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// HTMLSanitizer enforces the markup contract for submitter content: listing
// bodies keep a constrained user-generated-content subset, everything else is
// reduced to plain text.
type HTMLSanitizer struct {
	body  *bluemonday.Policy
	plain *bluemonday.Policy
}

// NewHTMLSanitizer builds the two bluemonday policies once; policies are
// immutable after construction and safe for concurrent use.
func NewHTMLSanitizer() *HTMLSanitizer {
	body := bluemonday.UGCPolicy()
	body.RequireNoFollowOnLinks(true)
	return &HTMLSanitizer{
		body:  body,
		plain: bluemonday.StrictPolicy(),
	}
}

func (s *HTMLSanitizer) SanitizeHTML(raw string) string {
	return strings.TrimSpace(s.body.Sanitize(raw))
}

func (s *HTMLSanitizer) SanitizeText(raw string) string {
	return strings.TrimSpace(s.plain.Sanitize(raw))
}
