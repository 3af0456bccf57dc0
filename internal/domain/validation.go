package domain

// ValidationErrorSet accumulates field validation failures across passes.
// It never short-circuits: every applicable error for a request is collected
// before the caller is told the submission is invalid.
type ValidationErrorSet struct {
	order    []string
	messages map[string][]string
}

// NewValidationErrorSet returns an empty, ready-to-use error set.
func NewValidationErrorSet() *ValidationErrorSet {
	return &ValidationErrorSet{messages: make(map[string][]string)}
}

// Add appends a message under a code, preserving first-seen code order.
func (s *ValidationErrorSet) Add(code, message string) {
	if _, ok := s.messages[code]; !ok {
		s.order = append(s.order, code)
	}
	s.messages[code] = append(s.messages[code], message)
}

// Merge folds another set into this one, keeping both orderings stable.
func (s *ValidationErrorSet) Merge(other *ValidationErrorSet) {
	if other == nil {
		return
	}
	for _, code := range other.order {
		for _, msg := range other.messages[code] {
			s.Add(code, msg)
		}
	}
}

// Codes returns the distinct error codes in first-seen order.
func (s *ValidationErrorSet) Codes() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// MessagesFor returns all messages recorded under a code.
func (s *ValidationErrorSet) MessagesFor(code string) []string {
	msgs := s.messages[code]
	out := make([]string, len(msgs))
	copy(out, msgs)
	return out
}

// HasErrors reports whether anything has been recorded.
func (s *ValidationErrorSet) HasErrors() bool {
	return len(s.order) > 0
}

// ByCode returns a code -> messages view for response serialization.
func (s *ValidationErrorSet) ByCode() map[string][]string {
	out := make(map[string][]string, len(s.order))
	for code, msgs := range s.messages {
		view := make([]string, len(msgs))
		copy(view, msgs)
		out[code] = view
	}
	return out
}
