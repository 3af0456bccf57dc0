package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/placemesh/listing-intake-service/internal/adapters/cache"
	"github.com/placemesh/listing-intake-service/internal/adapters/schema"
	"github.com/placemesh/listing-intake-service/internal/adapters/security"
	"github.com/placemesh/listing-intake-service/internal/application"
	"github.com/placemesh/listing-intake-service/internal/domain"
	"github.com/placemesh/listing-intake-service/internal/ports"
)

const (
	testFormSecret  = "form-secret"
	testCSRFHashKey = "0123456789abcdef0123456789abcdef"
)

type handlerFixture struct {
	router http.Handler
	timing *security.TimingToken
	csrf   *security.CSRFCodec
	repo   *memListings
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	csrfCodec, err := security.NewCSRFCodec(testCSRFHashKey)
	if err != nil {
		t.Fatalf("csrf codec: %v", err)
	}
	timing := security.NewTimingToken(testFormSecret, 3*time.Second, 24*time.Hour)
	sessions, err := security.NewJWTVerifier("session-secret")
	if err != nil {
		t.Fatalf("jwt verifier: %v", err)
	}
	sanitizer := schema.NewHTMLSanitizer()
	repo := &memListings{byID: map[uuid.UUID]domain.Listing{}}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			HoneypotField:    "contact_fax",
			SubmissionLimit:  100,
			SubmissionWindow: time.Hour,
			RequireTitle:     true,
			RequireContent:   true,
			MaxUploadBytes:   1 << 20,
			AllowedImageTypes: []string{
				"image/png", "image/jpeg",
			},
			DefaultStatus:    domain.StatusPendingReview,
			AnonymousHashKey: "anon-key",
			FlashTTL:         time.Minute,
		},
		Listings:  repo,
		Media:     &memAttachments{byID: map[uuid.UUID]domain.Attachment{}},
		Outbox:    &memOutbox{},
		Limiter:   cache.NewMemoryRateLimitStore(),
		Flash:     &memFlash{items: map[string][]byte{}},
		Schema:    schema.NewRegistry(sanitizer),
		Sanitizer: sanitizer,
		Sessions:  sessions,
		Timing:    timing,
		Resolver:  security.NewProxyResolver(nil),
		CSRF:      csrfCodec,
	})

	handler := NewHandler(svc, HandlerConfig{
		MaxUploadBytes: 1 << 20,
	})
	return &handlerFixture{
		router: NewRouter(handler),
		timing: timing,
		csrf:   csrfCodec,
		repo:   repo,
	}
}

// submitForm posts a multipart submission with valid anti-abuse tokens unless
// the override mutates them.
func (f *handlerFixture) submitForm(t *testing.T, override func(fields map[string]string)) *httptest.ResponseRecorder {
	t.Helper()

	const scope = "scope-test"
	csrfToken, err := f.csrf.Issue(scope)
	if err != nil {
		t.Fatalf("issue csrf: %v", err)
	}
	fields := map[string]string{
		"title":      "Corner Bakery",
		"content":    "Fresh bread daily, open since 1998.",
		"excerpt":    "A neighborhood bakery.",
		"csrf_token": csrfToken,
		"form_token": f.timing.Issue(time.Now().Add(-time.Minute)),
	}
	if override != nil {
		override(fields)
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/listings/v1/submit", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(&http.Cookie{Name: "intake_scope", Value: scope})
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestSubmitEndpointCreates(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	rec := f.submitForm(t, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Status string `json:"status"`
		Data   struct {
			ListingID uuid.UUID `json:"listing_id"`
			IsUpdate  bool      `json:"is_update"`
			Status    string    `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Data.ListingID == uuid.Nil || out.Data.IsUpdate {
		t.Fatalf("unexpected result payload: %+v", out)
	}
	if _, ok := f.repo.byID[out.Data.ListingID]; !ok {
		t.Fatalf("listing not persisted")
	}
}

func TestSubmitEndpointGenericSpamRejection(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	rec := f.submitForm(t, func(fields map[string]string) {
		fields["contact_fax"] = "+1 555 0100"
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var out apiError
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Code != "SUBMISSION_REJECTED" {
		t.Fatalf("expected generic rejection code, got %+v", out)
	}
	// The body must never reveal which gate stage fired.
	if bytes.Contains(rec.Body.Bytes(), []byte("honeypot")) {
		t.Fatalf("rejection response leaks the failing stage: %s", rec.Body.String())
	}
}

func TestSubmitEndpointAggregatedFieldErrors(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	rec := f.submitForm(t, func(fields map[string]string) {
		fields["title"] = ""
		fields["content"] = ""
		fields["email"] = "not-an-email"
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var out struct {
		Code   string              `json:"code"`
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected validation code, got %+v", out)
	}
	for _, want := range []string{"title", "content", "email"} {
		if len(out.Errors[want]) == 0 {
			t.Fatalf("missing aggregated error for %q: %v", want, out.Errors)
		}
	}
}

func TestSubmitEndpointRejectsStaleToken(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	rec := f.submitForm(t, func(fields map[string]string) {
		fields["form_token"] = f.timing.Issue(time.Now())
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a too-fast submission, got %d", rec.Code)
	}
}

func TestFormEndpointIssuesTokens(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/listings/v1/form", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var out struct {
		Data struct {
			CSRFToken     string `json:"csrf_token"`
			FormToken     string `json:"form_token"`
			HoneypotField string `json:"honeypot_field"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// The advertised honeypot field must come from the pipeline config, not
	// an adapter-level default.
	if out.Data.CSRFToken == "" || out.Data.FormToken == "" || out.Data.HoneypotField != "contact_fax" {
		t.Fatalf("incomplete form payload: %+v", out.Data)
	}

	var foundScope bool
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "intake_scope" && cookie.Value != "" {
			foundScope = true
		}
	}
	if !foundScope {
		t.Fatalf("expected scope cookie to be set")
	}
}

func TestFlashEndpointRequiresBearer(t *testing.T) {
	t.Parallel()

	f := newHandlerFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/listings/v1/flash", nil)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

type memListings struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Listing
}

func (m *memListings) CreateWithTaxonomyTx(_ context.Context, params ports.ListingWriteParams) (domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	listing := domain.Listing{
		ListingID: params.ListingID,
		AuthorID:  params.AuthorID,
		Title:     params.Draft.Title,
		Body:      params.Draft.Body,
		Status:    params.Draft.Status,
	}
	m.byID[listing.ListingID] = listing
	return listing, nil
}

func (m *memListings) UpdateWithTaxonomyTx(_ context.Context, params ports.ListingWriteParams) (domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	listing, ok := m.byID[params.ListingID]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	listing.Title = params.Draft.Title
	listing.Body = params.Draft.Body
	listing.Status = params.Draft.Status
	m.byID[listing.ListingID] = listing
	return listing, nil
}

func (m *memListings) GetByID(_ context.Context, listingID uuid.UUID) (domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	listing, ok := m.byID[listingID]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	return listing, nil
}

type memAttachments struct {
	mu   sync.Mutex
	byID map[uuid.UUID]domain.Attachment
}

func (m *memAttachments) GetByID(_ context.Context, attachmentID uuid.UUID) (domain.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attachment, ok := m.byID[attachmentID]
	if !ok {
		return domain.Attachment{}, domain.ErrNotFound
	}
	return attachment, nil
}

func (m *memAttachments) Create(_ context.Context, attachment domain.Attachment) (domain.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[attachment.AttachmentID] = attachment
	return attachment, nil
}

type memOutbox struct {
	mu     sync.Mutex
	events []ports.OutboxEvent
}

func (m *memOutbox) Enqueue(_ context.Context, event ports.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *memOutbox) ClaimUnpublished(context.Context, int, string, time.Time) ([]ports.OutboxRecord, error) {
	return nil, nil
}
func (m *memOutbox) MarkPublished(context.Context, uuid.UUID, string, time.Time) error { return nil }
func (m *memOutbox) MarkFailed(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}
func (m *memOutbox) MarkDeadLettered(context.Context, uuid.UUID, string, string, time.Time) error {
	return nil
}

type memFlash struct {
	mu    sync.Mutex
	items map[string][]byte
}

func (m *memFlash) Put(_ context.Context, scope string, payload []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[scope] = payload
	return nil
}

func (m *memFlash) Take(_ context.Context, scope string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.items[scope]
	if !ok {
		return nil, nil
	}
	delete(m.items, scope)
	return payload, nil
}
