package application

import (
	"context"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/placemesh/listing-intake-service/internal/domain"
)

// validateFields runs the aggregating validation passes. It never returns on
// the first failure: structural requireds, schema-driven field checks and
// cross-field hooks all append into one shared set so the submitter sees
// every problem at once.
func (s *Service) validateFields(ctx context.Context, req SubmissionRequest, actor domain.Actor) (domain.ListingDraft, *domain.ValidationErrorSet) {
	errs := domain.NewValidationErrorSet()

	draft := domain.ListingDraft{
		Title:       s.sanitizeText(req.Title),
		Body:        s.sanitizeHTML(req.Body),
		Excerpt:     s.sanitizeText(req.Excerpt),
		CategoryIDs: req.CategoryIDs,
		TagIDs:      req.TagIDs,
		Fields:      make(map[string]string),
	}

	// Pass 1: structural requireds.
	if s.cfg.RequireTitle && draft.Title == "" {
		errs.Add("title", "title is required")
	}
	if s.cfg.RequireContent && draft.Body == "" {
		errs.Add("content", "description is required")
	}
	if draft.Body != "" && s.cfg.MinContentLength > 0 && len(draft.Body) < s.cfg.MinContentLength {
		errs.Add("content", "description is too short")
	}
	if s.cfg.RequireCategory && len(req.CategoryIDs) == 0 {
		errs.Add("category", "at least one category is required")
	}

	// An existing image reference only survives if the caller owns it or
	// holds elevated rights; a failed ownership check drops the reference
	// silently rather than failing the whole submission.
	draft.ImageID = s.resolveImageRef(ctx, actor, req.FeaturedImageID)
	if s.cfg.RequireFeaturedImage && req.Upload == nil && draft.ImageID == nil {
		errs.Add("featured_image", "a featured image is required")
	}

	// Pass 2: schema-driven sanitize-then-validate for every non-admin field.
	if s.schema != nil {
		for _, def := range s.schema.ListFields(true) {
			raw := req.Fields[def.Name]
			clean := raw
			if def.Sanitize != nil {
				clean = def.Sanitize(raw)
			}
			if def.Required && clean == "" {
				errs.Add(def.Name, def.Name+" is required")
				continue
			}
			if clean == "" {
				continue
			}
			if def.Validate != nil {
				if err := def.Validate(clean); err != nil {
					errs.Add(def.Name, err.Error())
					continue
				}
			}
			draft.Fields[def.Name] = clean
		}
	}

	return draft, errs
}

// validateUpload checks the uploaded image against the MIME allowlist and the
// effective size ceiling (the smaller of the configured and transport limits).
// Transport-level upload errors surface as user-facing messages per code.
func (s *Service) validateUpload(upload *ImageUpload, errs *domain.ValidationErrorSet) {
	if upload == nil {
		return
	}

	switch upload.TransportErr {
	case "":
	case "too_large":
		errs.Add("image", "the uploaded image exceeds the allowed size")
		return
	case "partial":
		errs.Add("image", "the image upload was interrupted, please retry")
		return
	default:
		errs.Add("image", "the image upload failed, please retry")
		return
	}

	ceiling := s.cfg.MaxUploadBytes
	if upload.TransportMax > 0 && (ceiling <= 0 || upload.TransportMax < ceiling) {
		ceiling = upload.TransportMax
	}
	if ceiling > 0 && upload.SizeBytes > ceiling {
		errs.Add("image", "the uploaded image exceeds the allowed size")
		return
	}

	detected := mimetype.Detect(upload.Data)
	for _, allowed := range s.cfg.AllowedImageTypes {
		if detected.Is(allowed) {
			return
		}
	}
	errs.Add("image", "unsupported image type")
}

// resolveImageRef maps a referenced attachment id to an attachable id, or nil
// when the reference is absent, unknown, or owned by someone else. The nil
// path is deliberate: reusing another user's private upload is an insecure
// direct object reference, and clearing is the safe degradation.
func (s *Service) resolveImageRef(ctx context.Context, actor domain.Actor, imageID uuid.UUID) *uuid.UUID {
	if imageID == uuid.Nil || s.media == nil {
		return nil
	}
	attachment, err := s.media.GetByID(ctx, imageID)
	if err != nil {
		return nil
	}
	if s.elevated(actor) {
		return &attachment.AttachmentID
	}
	if actor.Anonymous() || attachment.OwnerID == nil || *attachment.OwnerID != *actor.UserID {
		return nil
	}
	return &attachment.AttachmentID
}

func (s *Service) sanitizeText(raw string) string {
	if s.sanitizer == nil {
		return raw
	}
	return s.sanitizer.SanitizeText(raw)
}

func (s *Service) sanitizeHTML(raw string) string {
	if s.sanitizer == nil {
		return raw
	}
	return s.sanitizer.SanitizeHTML(raw)
}
