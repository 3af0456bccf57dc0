package schema

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"

	"github.com/placemesh/listing-intake-service/internal/domain"
	"github.com/placemesh/listing-intake-service/internal/ports"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-.]{7,20}$`)

// Registry is the built-in field registry for directory listings. Deployments
// with bespoke field types swap in their own ports.FieldSchema; this default
// covers the common contact fields.
type Registry struct {
	fields []ports.FieldDefinition
}

// NewRegistry builds the default field set. Sanitize always runs before
// Validate, so validators only ever see cleaned values.
func NewRegistry(sanitizer ports.ContentSanitizer) *Registry {
	text := func(raw string) string { return sanitizer.SanitizeText(raw) }
	return &Registry{fields: []ports.FieldDefinition{
		{
			Name:     "website",
			Sanitize: text,
			Validate: func(clean string) error {
				if clean == "" {
					return nil
				}
				parsed, err := url.Parse(clean)
				if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
					return fmt.Errorf("%w: website must be an http(s) URL", domain.ErrInvalidInput)
				}
				return nil
			},
		},
		{
			Name:     "phone",
			Sanitize: text,
			Validate: func(clean string) error {
				if clean == "" {
					return nil
				}
				if !phonePattern.MatchString(clean) {
					return fmt.Errorf("%w: phone contains invalid characters", domain.ErrInvalidInput)
				}
				return nil
			},
		},
		{
			Name:     "email",
			Sanitize: func(raw string) string { return strings.ToLower(text(raw)) },
			Validate: func(clean string) error {
				if clean == "" {
					return nil
				}
				if _, err := mail.ParseAddress(clean); err != nil {
					return fmt.Errorf("%w: invalid contact email", domain.ErrInvalidInput)
				}
				return nil
			},
		},
		{
			Name:     "hours",
			Sanitize: text,
			Validate: func(clean string) error {
				if len(clean) > 500 {
					return fmt.Errorf("%w: hours must be <= 500 chars", domain.ErrInvalidInput)
				}
				return nil
			},
		},
		{
			Name:      "moderation_note",
			AdminOnly: true,
			Sanitize:  text,
			Validate:  func(string) error { return nil },
		},
	}}
}

func (r *Registry) ListFields(excludeAdminOnly bool) []ports.FieldDefinition {
	if !excludeAdminOnly {
		out := make([]ports.FieldDefinition, len(r.fields))
		copy(out, r.fields)
		return out
	}
	out := make([]ports.FieldDefinition, 0, len(r.fields))
	for _, f := range r.fields {
		if f.AdminOnly {
			continue
		}
		out = append(out, f)
	}
	return out
}
