package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
)

func TestStore_GetOrLoad_DeduplicatesConcurrentLoads(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	var calls atomic.Int32
	release := make(chan struct{})

	loader := func(context.Context) (string, error) {
		calls.Add(1)
		<-release
		return "principal", nil
	}

	const workers = 32
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			v, err := store.GetOrLoad(context.Background(), "token-hash", loader)
			if err != nil {
				errCh <- err
				return
			}
			if v != "principal" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("unexpected error: %v", err)
	}

	// Late goroutines may miss the in-flight call but must then hit the cache.
	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_ExpiresAfterTTL(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	store := NewStoreWithClock[int](time.Minute, clock)
	ctx := context.Background()

	store.Set(ctx, "k", 7)
	if v, ok := store.Get(ctx, "k"); !ok || v != 7 {
		t.Fatalf("expected cached value, got %v %v", v, ok)
	}

	clock.Advance(time.Minute)
	if _, ok := store.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
	if store.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted")
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore[string](time.Minute)
	var calls atomic.Int32
	loader := func(context.Context) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("upstream down")
		}
		return "ok", nil
	}

	if _, err := store.GetOrLoad(context.Background(), "k", loader); err == nil {
		t.Fatalf("expected first load to fail")
	}
	v, err := store.GetOrLoad(context.Background(), "k", loader)
	if err != nil || v != "ok" {
		t.Fatalf("expected second load to succeed, got %q %v", v, err)
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore[bool](0)
	ctx := context.Background()
	store.Set(ctx, "standings:l1:1", true)
	store.Set(ctx, "standings:l1:2", true)
	store.Set(ctx, "standings:l2:1", true)

	store.DeletePrefix(ctx, "standings:l1:")

	if store.Len() != 1 {
		t.Fatalf("expected one remaining entry, got %d", store.Len())
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
