package ports

import (
	"context"
	"time"
)

// RateLimitStore is the shared fixed-window counter backing submission limits.
// CheckAndIncrement must be atomic with respect to concurrent callers on the
// same key: under N concurrent calls with limit L, exactly L may be allowed.
// The window TTL is set when the counter is created and never extended by
// later increments.
type RateLimitStore interface {
	CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (allowed bool, count int, err error)
}

// FlashStore keeps a caller's last rejected submission values for re-display.
// Entries are TTL'd and consumed on read. Only authenticated callers get a
// flash scope; anonymous failures must not leak state across sessions.
type FlashStore interface {
	Put(ctx context.Context, scope string, payload []byte, ttl time.Duration) error
	Take(ctx context.Context, scope string) ([]byte, error)
}
