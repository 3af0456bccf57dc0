package application

import (
	"time"

	"github.com/placemesh/listing-intake-service/internal/ports"
)

// Service is the submission intake coordinator. Every collaborator is an
// injected port so tests can substitute fakes per case without global state.
type Service struct {
	cfg       Config
	hooks     Hooks
	listings  ports.ListingRepository
	media     ports.AttachmentRepository
	outbox    ports.OutboxRepository
	limiter   ports.RateLimitStore
	flash     ports.FlashStore
	schema    ports.FieldSchema
	sanitizer ports.ContentSanitizer
	sessions  ports.SessionVerifier
	timing    ports.TimingTokenCodec
	resolver  ports.ClientResolver
	csrf      ports.CSRFCodec
	gate      abuseGate
	nowFn     func() time.Time
}

type Dependencies struct {
	Config    Config
	Hooks     Hooks
	Listings  ports.ListingRepository
	Media     ports.AttachmentRepository
	Outbox    ports.OutboxRepository
	Limiter   ports.RateLimitStore
	Flash     ports.FlashStore
	Schema    ports.FieldSchema
	Sanitizer ports.ContentSanitizer
	Sessions  ports.SessionVerifier
	Timing    ports.TimingTokenCodec
	Resolver  ports.ClientResolver
	CSRF      ports.CSRFCodec
	// Gate overrides the built-in anti-abuse gate; tests use it to spy on
	// whether the gate ran at all.
	Gate abuseGate
}

func NewService(deps Dependencies) *Service {
	s := &Service{
		cfg:       deps.Config,
		hooks:     deps.Hooks,
		listings:  deps.Listings,
		media:     deps.Media,
		outbox:    deps.Outbox,
		limiter:   deps.Limiter,
		flash:     deps.Flash,
		schema:    deps.Schema,
		sanitizer: deps.Sanitizer,
		sessions:  deps.Sessions,
		timing:    deps.Timing,
		resolver:  deps.Resolver,
		csrf:      deps.CSRF,
		gate:      deps.Gate,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
	if s.gate == nil {
		s.gate = &antiAbuseGate{
			cfg:      deps.Config,
			hooks:    deps.Hooks,
			timing:   deps.Timing,
			resolver: deps.Resolver,
			limiter:  deps.Limiter,
			outbox:   deps.Outbox,
			nowFn:    func() time.Time { return s.nowFn() },
		}
	}
	return s
}

// HoneypotFieldName is the form field the gate expects to arrive empty. The
// HTTP adapter renders and reads the field under this name so the two layers
// can never disagree on it.
func (s *Service) HoneypotFieldName() string {
	if s.cfg.HoneypotField == "" {
		return "website_url_2"
	}
	return s.cfg.HoneypotField
}
