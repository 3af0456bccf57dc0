package domain

import (
	"time"

	"github.com/google/uuid"
)

// ListingStatus is the moderation state of a directory entry.
type ListingStatus string

const (
	StatusPendingReview ListingStatus = "pending_review"
	StatusPublished     ListingStatus = "published"
	StatusRejected      ListingStatus = "rejected"
)

// Listing is the persisted directory entry aggregate.
// Body and excerpt are stored post-sanitization; raw submitter input never reaches storage.
type Listing struct {
	ListingID   uuid.UUID
	AuthorID    *uuid.UUID
	Title       string
	Body        string
	Excerpt     string
	Status      ListingStatus
	CategoryIDs []uuid.UUID
	TagIDs      []uuid.UUID
	ImageID     *uuid.UUID
	Fields      map[string]string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListingDraft is the sanitized, validated projection of a submission, ready
// for handoff to the content store. It exists only after the anti-abuse gate
// and the validation aggregator have both passed.
type ListingDraft struct {
	Title       string
	Body        string
	Excerpt     string
	Status      ListingStatus
	CategoryIDs []uuid.UUID
	TagIDs      []uuid.UUID
	ImageID     *uuid.UUID
	Fields      map[string]string
}

// Attachment is a previously uploaded asset referenced by a submission.
// Ownership is checked before a reference is attached to a listing.
type Attachment struct {
	AttachmentID uuid.UUID
	OwnerID      *uuid.UUID
	FileName     string
	ContentType  string
	SizeBytes    int64
	CreatedAt    time.Time
}

// SpamEvent is the structured audit record emitted on every gate rejection.
// This is the only place rejection detail is retained; the submitter sees a
// single generic message regardless of stage.
type SpamEvent struct {
	Stage      string    `json:"stage"`
	Identifier string    `json:"identifier"`
	Timestamp  time.Time `json:"ts"`
}

// Actor is the caller identity resolved from the session layer.
// A nil UserID means the submission is anonymous.
type Actor struct {
	UserID *uuid.UUID
	Role   string
}

// Anonymous reports whether the actor carries no authenticated identity.
func (a Actor) Anonymous() bool { return a.UserID == nil }
