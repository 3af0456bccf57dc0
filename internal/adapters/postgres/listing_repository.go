package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/placemesh/listing-intake-service/internal/domain"
	"github.com/placemesh/listing-intake-service/internal/ports"
	"gorm.io/gorm"
)

type listingRepository struct {
	db *gorm.DB
}

// CreateWithTaxonomyTx inserts the listing row together with its category and
// tag associations in one transaction. A failure at any point rolls back the
// whole submission so no orphaned taxonomy rows survive.
func (r *listingRepository) CreateWithTaxonomyTx(ctx context.Context, params ports.ListingWriteParams) (domain.Listing, error) {
	var result domain.Listing
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := listingModel{
			ListingID: params.ListingID,
			AuthorID:  params.AuthorID,
			Title:     params.Draft.Title,
			Body:      params.Draft.Body,
			Excerpt:   params.Draft.Excerpt,
			Status:    string(params.Draft.Status),
			ImageID:   params.Draft.ImageID,
			Fields:    encodeFields(params.Draft.Fields),
			CreatedAt: params.SubmittedAt,
			UpdatedAt: params.SubmittedAt,
		}
		if err := tx.Create(&rec).Error; err != nil {
			if isUniqueViolation(err) {
				return domain.ErrConflict
			}
			return err
		}

		if err := insertTaxonomy(tx, params.ListingID, params.Draft.CategoryIDs, params.Draft.TagIDs); err != nil {
			return err
		}

		result = toDomainListing(rec, params.Draft.CategoryIDs, params.Draft.TagIDs)
		return nil
	})
	if err != nil {
		return domain.Listing{}, err
	}
	return result, nil
}

// UpdateWithTaxonomyTx rewrites the listing row and replaces its taxonomy
// associations. Replace, not merge: the submitted set is the full new set.
func (r *listingRepository) UpdateWithTaxonomyTx(ctx context.Context, params ports.ListingWriteParams) (domain.Listing, error) {
	var result domain.Listing
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec listingModel
		if err := tx.Where("listing_id = ?", params.ListingID).Take(&rec).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		rec.Title = params.Draft.Title
		rec.Body = params.Draft.Body
		rec.Excerpt = params.Draft.Excerpt
		rec.Status = string(params.Draft.Status)
		rec.ImageID = params.Draft.ImageID
		rec.Fields = encodeFields(params.Draft.Fields)
		rec.UpdatedAt = params.SubmittedAt
		if err := tx.Save(&rec).Error; err != nil {
			return err
		}

		if err := tx.Where("listing_id = ?", params.ListingID).Delete(&listingCategoryModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("listing_id = ?", params.ListingID).Delete(&listingTagModel{}).Error; err != nil {
			return err
		}
		if err := insertTaxonomy(tx, params.ListingID, params.Draft.CategoryIDs, params.Draft.TagIDs); err != nil {
			return err
		}

		result = toDomainListing(rec, params.Draft.CategoryIDs, params.Draft.TagIDs)
		return nil
	})
	if err != nil {
		return domain.Listing{}, err
	}
	return result, nil
}

func (r *listingRepository) GetByID(ctx context.Context, listingID uuid.UUID) (domain.Listing, error) {
	var rec listingModel
	if err := r.db.WithContext(ctx).Where("listing_id = ?", listingID).Take(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Listing{}, domain.ErrNotFound
		}
		return domain.Listing{}, err
	}

	categoryIDs, err := r.loadTaxonomyIDs(ctx, &listingCategoryModel{}, "category_id", listingID)
	if err != nil {
		return domain.Listing{}, err
	}
	tagIDs, err := r.loadTaxonomyIDs(ctx, &listingTagModel{}, "tag_id", listingID)
	if err != nil {
		return domain.Listing{}, err
	}
	return toDomainListing(rec, categoryIDs, tagIDs), nil
}

func (r *listingRepository) loadTaxonomyIDs(ctx context.Context, model any, column string, listingID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(model).
		Where("listing_id = ?", listingID).
		Pluck(column, &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func insertTaxonomy(tx *gorm.DB, listingID uuid.UUID, categoryIDs, tagIDs []uuid.UUID) error {
	for _, id := range categoryIDs {
		if err := tx.Create(&listingCategoryModel{ListingID: listingID, CategoryID: id}).Error; err != nil {
			return err
		}
	}
	for _, id := range tagIDs {
		if err := tx.Create(&listingTagModel{ListingID: listingID, TagID: id}).Error; err != nil {
			return err
		}
	}
	return nil
}
