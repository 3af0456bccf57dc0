package ports

// FieldDefinition is one entry from the external field registry.
// Sanitize runs before Validate; Validate receives the sanitized value.
type FieldDefinition struct {
	Name      string
	Required  bool
	AdminOnly bool
	Sanitize  func(raw string) string
	Validate  func(clean string) error
}

// FieldSchema is the per-field validation registry boundary.
// ListFields(true) excludes admin-only fields so public submissions can never
// write them.
type FieldSchema interface {
	ListFields(excludeAdminOnly bool) []FieldDefinition
}

// ContentSanitizer strips unsafe markup from submitter-controlled content.
// Body keeps a constrained HTML subset; excerpt and plain fields keep none.
type ContentSanitizer interface {
	SanitizeHTML(raw string) string
	SanitizeText(raw string) string
}
