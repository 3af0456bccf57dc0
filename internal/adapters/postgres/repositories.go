package postgres

import (
	"github.com/placemesh/listing-intake-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Listings    ports.ListingRepository
	Attachments ports.AttachmentRepository
	Outbox      ports.OutboxRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Listings:    &listingRepository{db: db},
		Attachments: &attachmentRepository{db: db},
		Outbox:      &outboxRepository{db: db},
	}
}
