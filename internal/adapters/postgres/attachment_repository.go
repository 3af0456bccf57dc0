package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/placemesh/listing-intake-service/internal/domain"
	"gorm.io/gorm"
)

type attachmentRepository struct {
	db *gorm.DB
}

func (r *attachmentRepository) GetByID(ctx context.Context, attachmentID uuid.UUID) (domain.Attachment, error) {
	var rec attachmentModel
	if err := r.db.WithContext(ctx).Where("attachment_id = ?", attachmentID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Attachment{}, domain.ErrNotFound
		}
		return domain.Attachment{}, err
	}
	return toDomainAttachment(rec), nil
}

func (r *attachmentRepository) Create(ctx context.Context, attachment domain.Attachment) (domain.Attachment, error) {
	rec := attachmentModel{
		AttachmentID: attachment.AttachmentID,
		OwnerID:      attachment.OwnerID,
		FileName:     attachment.FileName,
		ContentType:  attachment.ContentType,
		SizeBytes:    attachment.SizeBytes,
		CreatedAt:    attachment.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.Attachment{}, domain.ErrConflict
		}
		return domain.Attachment{}, err
	}
	return toDomainAttachment(rec), nil
}
