package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCheckAndIncrementExactlyLimitAllowedUnderConcurrency(t *testing.T) {
	t.Parallel()

	store := NewMemoryRateLimitStore()
	ctx := context.Background()
	const workers = 20
	const limit = 5

	var allowed atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, _, err := store.CheckAndIncrement(ctx, "submitter", limit, time.Minute)
			if err != nil {
				t.Errorf("check and increment: %v", err)
				return
			}
			if ok {
				allowed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if got := allowed.Load(); got != limit {
		t.Fatalf("expected exactly %d allowed, got %d", limit, got)
	}
}

func TestWindowResetsAfterExpiry(t *testing.T) {
	t.Parallel()

	store := NewMemoryRateLimitStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		if ok, _, _ := store.CheckAndIncrement(ctx, "k", 3, time.Minute); !ok {
			t.Fatalf("call %d should be allowed", i+1)
		}
	}
	if ok, count, _ := store.CheckAndIncrement(ctx, "k", 3, time.Minute); ok || count != 3 {
		t.Fatalf("expected denial at limit, got allowed=%v count=%d", ok, count)
	}

	now = now.Add(time.Minute + time.Second)
	if ok, count, _ := store.CheckAndIncrement(ctx, "k", 3, time.Minute); !ok || count != 1 {
		t.Fatalf("expected fresh window after expiry, got allowed=%v count=%d", ok, count)
	}
}

func TestDenialDoesNotExtendWindow(t *testing.T) {
	t.Parallel()

	store := NewMemoryRateLimitStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	if ok, _, _ := store.CheckAndIncrement(ctx, "k", 1, time.Minute); !ok {
		t.Fatalf("first call should be allowed")
	}

	// Hammering a denied key must not push the expiry forward.
	now = now.Add(50 * time.Second)
	if ok, _, _ := store.CheckAndIncrement(ctx, "k", 1, time.Minute); ok {
		t.Fatalf("expected denial inside window")
	}
	now = now.Add(11 * time.Second)
	if ok, _, _ := store.CheckAndIncrement(ctx, "k", 1, time.Minute); !ok {
		t.Fatalf("window anchored at first request should have expired")
	}
}

func TestIndependentKeys(t *testing.T) {
	t.Parallel()

	store := NewMemoryRateLimitStore()
	ctx := context.Background()

	if ok, _, _ := store.CheckAndIncrement(ctx, "a", 1, time.Minute); !ok {
		t.Fatalf("key a should be allowed")
	}
	if ok, _, _ := store.CheckAndIncrement(ctx, "a", 1, time.Minute); ok {
		t.Fatalf("key a should now be denied")
	}
	if ok, _, _ := store.CheckAndIncrement(ctx, "b", 1, time.Minute); !ok {
		t.Fatalf("key b must not share key a's window")
	}
}
