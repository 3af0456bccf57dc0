package application

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/placemesh/listing-intake-service/internal/domain"
	"github.com/placemesh/listing-intake-service/internal/ports"
)

// abuseGate is the pass/fail decision over one submission attempt.
type abuseGate interface {
	Evaluate(ctx context.Context, req SubmissionRequest, actor domain.Actor) error
}

// antiAbuseGate composes honeypot, timing-token, rate-limit and custom checks
// into a single decision. Every stage collapses to domain.ErrSpamRejected:
// which stage fired is recorded only in the audit event, never in the
// response, so error text cannot be used to tune an evasion.
type antiAbuseGate struct {
	cfg      Config
	hooks    Hooks
	timing   ports.TimingTokenCodec
	resolver ports.ClientResolver
	limiter  ports.RateLimitStore
	outbox   ports.OutboxRepository
	nowFn    func() time.Time
}

func (g *antiAbuseGate) Evaluate(ctx context.Context, req SubmissionRequest, actor domain.Actor) error {
	for _, bypass := range g.hooks.Bypass {
		if bypass(req, actor) {
			return nil
		}
	}

	identifier := g.identifier(req, actor)

	// Honeypot: the hidden field must arrive exactly empty. A single space
	// is a fill. Constant-time compare keeps the check timing-uniform.
	if subtle.ConstantTimeCompare([]byte(req.HoneypotValue), []byte("")) != 1 {
		return g.reject(ctx, "honeypot", identifier)
	}

	if err := g.timing.Verify(req.TimingToken, g.nowFn()); err != nil {
		return g.reject(ctx, "timing_token", identifier)
	}

	allowed, _, err := g.limiter.CheckAndIncrement(ctx, identifier, g.cfg.SubmissionLimit, g.cfg.SubmissionWindow)
	if err != nil {
		// A degraded limiter store must not block legitimate submissions.
		slog.Default().WarnContext(ctx, "rate-limit store unavailable",
			"module", "application",
			"layer", "application",
			"operation", "rate_limit",
			"outcome", "warning",
			"identifier", identifier,
			"error", err,
		)
	} else if !allowed {
		return g.reject(ctx, "rate_limit", identifier)
	}

	for _, check := range g.hooks.SpamChecks {
		if err := check.Check(req, actor); err != nil {
			return g.reject(ctx, check.Name, identifier)
		}
	}
	return nil
}

// identifier keys rate limiting and audit events: the user id when
// authenticated, otherwise a keyed hash of the resolved client address so raw
// addresses never reach the shared store.
func (g *antiAbuseGate) identifier(req SubmissionRequest, actor domain.Actor) string {
	if !actor.Anonymous() {
		return "user:" + actor.UserID.String()
	}
	client := req.DirectAddr
	if g.resolver != nil {
		client = g.resolver.Resolve(req.DirectAddr, req.ForwardedValues)
	}
	return "ip:" + hashClientAddr(g.cfg.AnonymousHashKey, client)
}

func (g *antiAbuseGate) reject(ctx context.Context, stage, identifier string) error {
	now := g.nowFn()
	payload, _ := json.Marshal(domain.SpamEvent{
		Stage:      stage,
		Identifier: identifier,
		Timestamp:  now,
	})
	if g.outbox != nil {
		if err := g.outbox.Enqueue(ctx, ports.OutboxEvent{
			EventID:      uuid.New(),
			EventType:    "submission.spam_rejected",
			PartitionKey: identifier,
			Payload:      payload,
			OccurredAt:   now,
		}); err != nil {
			slog.Default().WarnContext(ctx, "spam audit event dropped",
				"module", "application",
				"layer", "application",
				"operation", "emit_spam_event",
				"outcome", "warning",
				"stage", stage,
				"error", err,
			)
		}
	}
	return domain.ErrSpamRejected
}
