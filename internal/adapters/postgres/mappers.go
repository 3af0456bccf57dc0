package postgres

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/placemesh/listing-intake-service/internal/domain"
	"gorm.io/gorm"
)

func toDomainListing(row listingModel, categoryIDs, tagIDs []uuid.UUID) domain.Listing {
	return domain.Listing{
		ListingID:   row.ListingID,
		AuthorID:    row.AuthorID,
		Title:       row.Title,
		Body:        row.Body,
		Excerpt:     row.Excerpt,
		Status:      domain.ListingStatus(row.Status),
		CategoryIDs: categoryIDs,
		TagIDs:      tagIDs,
		ImageID:     row.ImageID,
		Fields:      decodeFields(row.Fields),
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func toDomainAttachment(row attachmentModel) domain.Attachment {
	return domain.Attachment{
		AttachmentID: row.AttachmentID,
		OwnerID:      row.OwnerID,
		FileName:     row.FileName,
		ContentType:  row.ContentType,
		SizeBytes:    row.SizeBytes,
		CreatedAt:    row.CreatedAt,
	}
}

func encodeFields(fields map[string]string) string {
	if len(fields) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func decodeFields(raw string) map[string]string {
	fields := make(map[string]string)
	if raw == "" {
		return fields
	}
	_ = json.Unmarshal([]byte(raw), &fields)
	return fields
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
