package postgres

import (
	"time"

	"github.com/google/uuid"
)

type listingModel struct {
	ListingID uuid.UUID  `gorm:"column:listing_id;type:uuid;primaryKey"`
	AuthorID  *uuid.UUID `gorm:"column:author_id"`
	Title     string     `gorm:"column:title"`
	Body      string     `gorm:"column:body"`
	Excerpt   string     `gorm:"column:excerpt"`
	Status    string     `gorm:"column:status"`
	ImageID   *uuid.UUID `gorm:"column:image_id"`
	Fields    string     `gorm:"column:fields;type:jsonb"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (listingModel) TableName() string { return "listings" }

type listingCategoryModel struct {
	ListingID  uuid.UUID `gorm:"column:listing_id;type:uuid;primaryKey"`
	CategoryID uuid.UUID `gorm:"column:category_id;type:uuid;primaryKey"`
}

func (listingCategoryModel) TableName() string { return "listing_categories" }

type listingTagModel struct {
	ListingID uuid.UUID `gorm:"column:listing_id;type:uuid;primaryKey"`
	TagID     uuid.UUID `gorm:"column:tag_id;type:uuid;primaryKey"`
}

func (listingTagModel) TableName() string { return "listing_tags" }

type attachmentModel struct {
	AttachmentID uuid.UUID  `gorm:"column:attachment_id;type:uuid;primaryKey"`
	OwnerID      *uuid.UUID `gorm:"column:owner_id"`
	FileName     string     `gorm:"column:file_name"`
	ContentType  string     `gorm:"column:content_type"`
	SizeBytes    int64      `gorm:"column:size_bytes"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
}

func (attachmentModel) TableName() string { return "attachments" }

type intakeOutboxModel struct {
	OutboxID       uuid.UUID  `gorm:"column:outbox_id;type:uuid;primaryKey"`
	EventType      string     `gorm:"column:event_type"`
	PartitionKey   string     `gorm:"column:partition_key"`
	Payload        string     `gorm:"column:payload;type:jsonb"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	FirstSeenAt    time.Time  `gorm:"column:first_seen_at"`
	PublishedAt    *time.Time `gorm:"column:published_at"`
	RetryCount     int        `gorm:"column:retry_count"`
	LastError      *string    `gorm:"column:last_error"`
	LastErrorAt    *time.Time `gorm:"column:last_error_at"`
	ClaimToken     *string    `gorm:"column:claim_token"`
	ClaimUntil     *time.Time `gorm:"column:claim_until"`
	DeadLetteredAt *time.Time `gorm:"column:dead_lettered_at"`
}

func (intakeOutboxModel) TableName() string { return "intake_outbox" }
