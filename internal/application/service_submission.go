package application

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/placemesh/listing-intake-service/internal/domain"
	"github.com/placemesh/listing-intake-service/internal/ports"
)

// SubmitListing runs one submission through the full pipeline:
// authenticate, anti-abuse gate, validation, persist, notify.
//
// Ordering is deliberate. Permission failures are resolved before the gate so
// a legitimate editor is never penalized by heuristics meant for public
// submission, and the gate runs before field validation so a spam-flagged
// request never learns anything about field-level structure.
func (s *Service) SubmitListing(ctx context.Context, req SubmissionRequest) (SubmissionResult, error) {
	actor, err := s.authenticate(req)
	if err != nil {
		return SubmissionResult{}, err
	}

	isEdit := req.ExistingListingID != uuid.Nil
	var existing domain.Listing
	if isEdit {
		existing, err = s.listings.GetByID(ctx, req.ExistingListingID)
		if err != nil {
			return SubmissionResult{}, err
		}
		if !s.canEdit(actor, existing) {
			return SubmissionResult{}, domain.ErrPermissionDenied
		}
	}

	if !isEdit || s.cfg.GateAppliesOnEdit {
		if err := s.gate.Evaluate(ctx, req, actor); err != nil {
			s.stashForRedisplay(ctx, req, actor)
			return SubmissionResult{}, err
		}
	}

	draft, errs := s.validateFields(ctx, req, actor)
	s.validateUpload(req.Upload, errs)
	for _, hook := range s.hooks.CrossField {
		hook(req, draft, errs)
	}
	if errs.HasErrors() {
		s.stashForRedisplay(ctx, req, actor)
		return SubmissionResult{}, &ValidationFailedError{Errors: errs}
	}

	// A fresh upload takes precedence over a referenced image id.
	if req.Upload != nil {
		attachment, createErr := s.media.Create(ctx, domain.Attachment{
			AttachmentID: uuid.New(),
			OwnerID:      actor.UserID,
			FileName:     req.Upload.FileName,
			ContentType:  req.Upload.ContentType,
			SizeBytes:    req.Upload.SizeBytes,
			CreatedAt:    s.nowFn(),
		})
		if createErr != nil {
			return SubmissionResult{}, fmt.Errorf("%w: store upload: %v", domain.ErrPersistenceFailed, createErr)
		}
		draft.ImageID = &attachment.AttachmentID
	}

	draft.Status = s.resolveStatus(req, actor, isEdit, existing)

	params := ports.ListingWriteParams{
		Draft:       draft,
		SubmittedAt: s.nowFn(),
	}
	var listing domain.Listing
	if isEdit {
		params.ListingID = existing.ListingID
		params.AuthorID = existing.AuthorID
		listing, err = s.listings.UpdateWithTaxonomyTx(ctx, params)
	} else {
		params.ListingID = uuid.New()
		params.AuthorID = actor.UserID
		listing, err = s.listings.CreateWithTaxonomyTx(ctx, params)
	}
	if err != nil {
		return SubmissionResult{}, fmt.Errorf("%w: %v", domain.ErrPersistenceFailed, err)
	}

	// Notification is best-effort and create-only; the record is already
	// durable, so a failed enqueue is logged and swallowed.
	if !isEdit {
		s.notifyNewSubmission(ctx, listing)
	}

	return SubmissionResult{
		ListingID: listing.ListingID,
		IsUpdate:  isEdit,
		Status:    listing.Status,
	}, nil
}

// FormTokens issues the CSRF and timing token pair the submission form embeds
// at render time.
func (s *Service) FormTokens(sessionScope string) (FormTokens, error) {
	csrfToken, err := s.csrf.Issue(sessionScope)
	if err != nil {
		return FormTokens{}, fmt.Errorf("issue csrf token: %w", err)
	}
	return FormTokens{
		CSRFToken:   csrfToken,
		TimingToken: s.timing.Issue(s.nowFn()),
	}, nil
}

// RecallSubmission returns the caller's last rejected submission values for
// re-display, consuming them. Anonymous callers have no flash scope.
func (s *Service) RecallSubmission(ctx context.Context, sessionToken string) (json.RawMessage, error) {
	claims, err := s.sessions.ParseAndValidate(sessionToken)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	payload, err := s.flash.Take(ctx, "user:"+claims.UserID.String())
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, domain.ErrNotFound
	}
	return payload, nil
}

// authenticate resolves the caller identity and checks the CSRF binding.
// An absent session token is a valid anonymous caller; an invalid one is not.
func (s *Service) authenticate(req SubmissionRequest) (domain.Actor, error) {
	actor := domain.Actor{}
	if req.SessionToken != "" {
		claims, err := s.sessions.ParseAndValidate(req.SessionToken)
		if err != nil {
			return domain.Actor{}, domain.ErrUnauthorized
		}
		userID := claims.UserID
		actor = domain.Actor{UserID: &userID, Role: claims.Role}
	}
	if s.csrf != nil && !s.csrf.Verify(req.SessionScope, req.CSRFToken) {
		return domain.Actor{}, domain.ErrUnauthorized
	}
	return actor, nil
}

func (s *Service) canEdit(actor domain.Actor, listing domain.Listing) bool {
	if s.elevated(actor) {
		return true
	}
	if actor.Anonymous() || listing.AuthorID == nil {
		return false
	}
	return *listing.AuthorID == *actor.UserID
}

// resolveStatus computes the stored status: the configured default for
// creates, the preserved status for edits, both overridable by hooks.
func (s *Service) resolveStatus(req SubmissionRequest, actor domain.Actor, isEdit bool, existing domain.Listing) domain.ListingStatus {
	if isEdit {
		status := existing.Status
		for _, hook := range s.hooks.StatusTransition {
			status = hook(req, actor, existing, status)
		}
		return status
	}
	status := s.cfg.DefaultStatus
	if status == "" {
		status = domain.StatusPendingReview
	}
	for _, hook := range s.hooks.DefaultStatus {
		status = hook(req, actor, status)
	}
	return status
}

func (s *Service) notifyNewSubmission(ctx context.Context, listing domain.Listing) {
	payload, _ := json.Marshal(map[string]any{
		"listing_id":   listing.ListingID,
		"title":        listing.Title,
		"status":       listing.Status,
		"submitted_at": listing.CreatedAt,
	})
	if err := s.outbox.Enqueue(ctx, ports.OutboxEvent{
		EventID:      uuid.New(),
		EventType:    "listing.submitted",
		PartitionKey: listing.ListingID.String(),
		Payload:      payload,
		OccurredAt:   s.nowFn(),
	}); err != nil {
		slog.Default().WarnContext(ctx, "submission notification dropped",
			"module", "application",
			"layer", "application",
			"operation", "notify_new_submission",
			"outcome", "warning",
			"listing_id", listing.ListingID,
			"error", err,
		)
	}
}
