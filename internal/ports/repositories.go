package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/placemesh/listing-intake-service/internal/domain"
)

// ListingWriteParams captures the atomic persist inputs for a create or update.
// Taxonomy and image assignment ride in the same transaction so a failure at
// any point leaves no partial record behind.
type ListingWriteParams struct {
	ListingID   uuid.UUID
	AuthorID    *uuid.UUID
	Draft       domain.ListingDraft
	SubmittedAt time.Time
}

// ListingRepository is the content-store boundary.
// CreateWithTaxonomyTx/UpdateWithTaxonomyTx replace prior category, tag and
// image associations rather than merging them.
type ListingRepository interface {
	CreateWithTaxonomyTx(ctx context.Context, params ListingWriteParams) (domain.Listing, error)
	UpdateWithTaxonomyTx(ctx context.Context, params ListingWriteParams) (domain.Listing, error)
	GetByID(ctx context.Context, listingID uuid.UUID) (domain.Listing, error)
}

// AttachmentRepository resolves previously uploaded assets.
// Ownership lives here so the validator can reject insecure direct references.
type AttachmentRepository interface {
	GetByID(ctx context.Context, attachmentID uuid.UUID) (domain.Attachment, error)
	Create(ctx context.Context, attachment domain.Attachment) (domain.Attachment, error)
}

// OutboxEvent is the write-side event payload prior to storage.
// It is adapter-neutral to keep application code independent of broker specifics.
type OutboxEvent struct {
	EventID      uuid.UUID
	EventType    string
	PartitionKey string
	Payload      []byte
	OccurredAt   time.Time
}

// OutboxRecord represents durable outbox state, including retry/error metadata.
type OutboxRecord struct {
	OutboxID       uuid.UUID
	EventType      string
	PartitionKey   string
	Payload        []byte
	RetryCount     int
	LastError      *string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	LastErrorAt    *time.Time
	FirstSeenAt    time.Time
	ClaimToken     *string
	ClaimUntil     *time.Time
	DeadLetteredAt *time.Time
}

// OutboxRepository controls publish-retry workflow for audit and notification
// events. The transactional outbox keeps spam-audit and listing.submitted
// delivery decoupled from the request path.
type OutboxRepository interface {
	Enqueue(ctx context.Context, event OutboxEvent) error
	ClaimUnpublished(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]OutboxRecord, error)
	MarkPublished(ctx context.Context, outboxID uuid.UUID, claimToken string, at time.Time) error
	MarkFailed(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
	MarkDeadLettered(ctx context.Context, outboxID uuid.UUID, claimToken, errMsg string, at time.Time) error
}
