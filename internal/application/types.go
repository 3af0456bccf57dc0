package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/placemesh/listing-intake-service/internal/domain"
)

// Config carries the intake pipeline's tunables. Every field has a sane
// default applied by bootstrap; zero values here are still safe for tests.
type Config struct {
	HoneypotField     string
	GateAppliesOnEdit bool

	SubmissionLimit  int
	SubmissionWindow time.Duration

	RequireTitle         bool
	RequireContent       bool
	RequireCategory      bool
	RequireFeaturedImage bool
	MinContentLength     int

	MaxUploadBytes    int64
	AllowedImageTypes []string

	DefaultStatus domain.ListingStatus
	ElevatedRoles []string

	// AnonymousHashKey keys the BLAKE2b hash applied to anonymous client
	// addresses before they are used as rate-limit identifiers, so raw
	// addresses are never written to the shared store.
	AnonymousHashKey string

	FlashTTL time.Duration
}

// ImageUpload is the uploaded file part of a submission, already read from
// the transport by the HTTP adapter.
type ImageUpload struct {
	FileName      string
	ContentType   string
	SizeBytes     int64
	TransportMax  int64
	TransportErr  string
	Data          []byte
}

// SubmissionRequest is the raw input bag for one submission attempt.
// It is immutable once collected and lives only for the request duration.
type SubmissionRequest struct {
	Title       string
	Body        string
	Excerpt     string
	CategoryIDs []uuid.UUID
	TagIDs      []uuid.UUID
	Fields      map[string]string

	// ExistingListingID selects edit mode; uuid.Nil means create.
	ExistingListingID uuid.UUID
	// FeaturedImageID references a previously uploaded asset; uuid.Nil means none.
	FeaturedImageID uuid.UUID
	Upload          *ImageUpload

	HoneypotValue string
	TimingToken   string
	SessionToken  string
	CSRFToken     string
	// SessionScope is the opaque per-browser-session id the CSRF token binds to.
	SessionScope string

	DirectAddr      string
	ForwardedValues []string
	Referrer        string
}

// SubmissionResult is the success response of the pipeline.
type SubmissionResult struct {
	ListingID uuid.UUID            `json:"listing_id"`
	IsUpdate  bool                 `json:"is_update"`
	Status    domain.ListingStatus `json:"status"`
}

// FormTokens is the pair the submission form embeds at render time.
type FormTokens struct {
	CSRFToken   string `json:"csrf_token"`
	TimingToken string `json:"timing_token"`
}

// ValidationFailedError carries the fully aggregated error set to the caller.
// It is a value-style error: expected validation failures never panic and are
// never collapsed to a single first failure.
type ValidationFailedError struct {
	Errors *domain.ValidationErrorSet
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors.Codes(), ", "))
}

// BypassPredicate short-circuits the whole anti-abuse gate when true
// (e.g. trusted editorial roles).
type BypassPredicate func(req SubmissionRequest, actor domain.Actor) bool

// SpamCheck is a pluggable gate stage; a non-nil error rejects the submission.
// The name tags the audit event for operator visibility.
type SpamCheck struct {
	Name  string
	Check func(req SubmissionRequest, actor domain.Actor) error
}

// StatusOverride adjusts the status a new listing is created with.
type StatusOverride func(req SubmissionRequest, actor domain.Actor, current domain.ListingStatus) domain.ListingStatus

// TransitionOverride adjusts the status an edited listing keeps
// (e.g. force published entries back to pending after public edits).
type TransitionOverride func(req SubmissionRequest, actor domain.Actor, existing domain.Listing, current domain.ListingStatus) domain.ListingStatus

// CrossFieldCheck appends business-rule failures into the shared set after
// the per-field passes have run.
type CrossFieldCheck func(req SubmissionRequest, sanitized domain.ListingDraft, errs *domain.ValidationErrorSet)

// Hooks are the explicit, ordered extension points of the pipeline. They are
// constructor parameters, not ambient global dispatch, so each one is
// testable in isolation.
type Hooks struct {
	Bypass           []BypassPredicate
	SpamChecks       []SpamCheck
	DefaultStatus    []StatusOverride
	StatusTransition []TransitionOverride
	CrossField       []CrossFieldCheck
}
