package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/placemesh/listing-intake-service/internal/application"
	"github.com/placemesh/listing-intake-service/internal/domain"
)

// multipartMemoryLimit bounds the in-memory portion of multipart parsing;
// larger parts spill to temp files.
const multipartMemoryLimit = 10 << 20

// reservedFormKeys are the form values the pipeline consumes directly.
// Everything else lands in the extra-fields map for the schema validator.
var reservedFormKeys = map[string]bool{
	"title":                    true,
	"content":                  true,
	"excerpt":                  true,
	"category_ids":             true,
	"category_ids[]":           true,
	"tag_ids":                  true,
	"tag_ids[]":                true,
	"existing_record_id":       true,
	"featured_image_reference": true,
	"csrf_token":               true,
	"form_token":               true,
	"image":                    true,
}

func (h *Handler) parseSubmission(r *http.Request) (application.SubmissionRequest, error) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		return application.SubmissionRequest{}, fmt.Errorf("%w: malformed multipart form", domain.ErrInvalidInput)
	}

	honeypotField := h.service.HoneypotFieldName()
	req := application.SubmissionRequest{
		Title:           r.FormValue("title"),
		Body:            r.FormValue("content"),
		Excerpt:         r.FormValue("excerpt"),
		HoneypotValue:   r.FormValue(honeypotField),
		TimingToken:     r.FormValue("form_token"),
		CSRFToken:       r.FormValue("csrf_token"),
		SessionScope:    h.scopeFromCookie(r),
		DirectAddr:      r.RemoteAddr,
		ForwardedValues: r.Header.Values("X-Forwarded-For"),
		Referrer:        r.Referer(),
		Fields:          make(map[string]string),
	}

	if token, err := bearerTokenFromHeader(r.Header.Get("Authorization")); err == nil {
		req.SessionToken = token
	}

	req.CategoryIDs = parseUUIDList(r.MultipartForm.Value["category_ids"], r.MultipartForm.Value["category_ids[]"])
	req.TagIDs = parseUUIDList(r.MultipartForm.Value["tag_ids"], r.MultipartForm.Value["tag_ids[]"])

	if raw := strings.TrimSpace(r.FormValue("existing_record_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return application.SubmissionRequest{}, fmt.Errorf("%w: existing_record_id is not a valid id", domain.ErrInvalidInput)
		}
		req.ExistingListingID = id
	}
	// A malformed image reference is dropped, not fatal: the pipeline treats
	// an unresolvable reference as absent.
	if raw := strings.TrimSpace(r.FormValue("featured_image_reference")); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			req.FeaturedImageID = id
		}
	}

	for key, values := range r.MultipartForm.Value {
		if reservedFormKeys[key] || key == honeypotField || len(values) == 0 {
			continue
		}
		req.Fields[key] = values[0]
	}

	req.Upload = h.readUpload(r)
	return req, nil
}

// readUpload drains the optional image part. Transport failures are encoded
// on the upload value rather than failing the parse, so they surface through
// the same aggregated field-error path as every other image problem.
func (h *Handler) readUpload(r *http.Request) *application.ImageUpload {
	file, header, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil
		}
		return &application.ImageUpload{TransportErr: "unreadable", TransportMax: h.cfg.MaxUploadBytes}
	}
	defer file.Close()

	upload := &application.ImageUpload{
		FileName:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		TransportMax: h.cfg.MaxUploadBytes,
	}

	limit := h.cfg.MaxUploadBytes
	if limit <= 0 {
		limit = multipartMemoryLimit
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		upload.TransportErr = "partial"
		return upload
	}
	if int64(len(data)) > limit {
		upload.TransportErr = "too_large"
		return upload
	}
	upload.Data = data
	upload.SizeBytes = int64(len(data))
	return upload
}

// ensureScope reads the per-browser scope cookie, minting one when absent.
// The CSRF token binds to this value.
func (h *Handler) ensureScope(w http.ResponseWriter, r *http.Request) string {
	if scope := h.scopeFromCookie(r); scope != "" {
		return scope
	}
	scope := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.ScopeCookieName,
		Value:    scope,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return scope
}

func (h *Handler) scopeFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(h.cfg.ScopeCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func bearerTokenFromHeader(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("missing bearer token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}

func parseUUIDList(groups ...[]string) []uuid.UUID {
	var ids []uuid.UUID
	for _, values := range groups {
		for _, raw := range values {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			if id, err := uuid.Parse(raw); err == nil {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func mapDomainError(err error) (int, string, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "VALIDATION_ERROR", err.Error()
	case errors.Is(err, domain.ErrSpamRejected):
		return http.StatusBadRequest, "SUBMISSION_REJECTED", domain.ErrSpamRejected.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials"
	case errors.Is(err, domain.ErrPermissionDenied):
		return http.StatusForbidden, "FORBIDDEN", "you do not have permission to modify this entry"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "resource not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "CONFLICT", err.Error()
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
	}
}

func writeMappedError(ctx context.Context, w http.ResponseWriter, operation string, err error) {
	status, code, msg := mapDomainError(err)
	logHTTPOperationError(ctx, operation, status, code, msg, err)
	writeError(w, status, code, msg)
}
