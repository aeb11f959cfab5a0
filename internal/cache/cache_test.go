package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/imagesim/internal/models"
)

func profileOf(n int) models.ColorProfile {
	return models.ColorProfile{Width: n, Height: 1, Samples: make([]models.ColorSample, n)}
}

func TestGet_SinglePathSingleDecode(t *testing.T) {
	var decodes atomic.Int64
	loader := LoaderFunc(func(path string) (models.ColorProfile, error) {
		decodes.Add(1)
		time.Sleep(50 * time.Millisecond)
		return profileOf(4), nil
	})
	c := New(loader, WithJanitor(false))
	defer c.Close()

	const workers = 32
	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			p, err := c.Get(context.Background(), "same.png")
			if err != nil {
				errs <- err
				return
			}
			if p.Len() != 4 {
				errs <- errors.New("wrong profile")
			}
		}()
	}
	close(start)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("Get: %v", err)
	}

	if n := decodes.Load(); n != 1 {
		t.Errorf("decodes = %d, want 1", n)
	}
	if st := c.Stats(); st.Loads != 1 || st.Entries != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestGet_DifferentPathsConcurrent(t *testing.T) {
	// Each decode waits until both are in flight; a shared lock would deadlock.
	var arrived sync.WaitGroup
	arrived.Add(2)
	loader := LoaderFunc(func(path string) (models.ColorProfile, error) {
		arrived.Done()
		arrived.Wait()
		return profileOf(1), nil
	})
	c := New(loader, WithJanitor(false))
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	var failed atomic.Bool
	for _, p := range []string{"a.png", "b.png"} {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			if _, err := c.Get(ctx, p); err != nil {
				failed.Store(true)
			}
		}(p)
	}
	wg.Wait()
	if failed.Load() {
		t.Fatal("different paths did not decode concurrently")
	}
	if c.Len() != 2 {
		t.Errorf("len = %d, want 2", c.Len())
	}
}

func TestGet_HitRefreshesIdleTimer(t *testing.T) {
	const ttl = 300 * time.Millisecond
	var decodes atomic.Int64
	loader := LoaderFunc(func(path string) (models.ColorProfile, error) {
		decodes.Add(1)
		return profileOf(1), nil
	})
	c := New(loader, WithTTL(ttl), WithJanitor(false))
	defer c.Close()
	ctx := context.Background()

	if _, err := c.Get(ctx, "x.png"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	time.Sleep(200 * time.Millisecond)
	if _, err := c.Get(ctx, "x.png"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	time.Sleep(200 * time.Millisecond)

	// 400ms after the decode, but only 200ms after the last hit.
	c.items.DeleteExpired()
	if n := c.Len(); n != 1 {
		t.Fatalf("entry touched within the TTL was evicted (len = %d)", n)
	}

	time.Sleep(250 * time.Millisecond)
	c.items.DeleteExpired()
	if n := c.Len(); n != 0 {
		t.Fatalf("idle entry survived (len = %d)", n)
	}

	if _, err := c.Get(ctx, "x.png"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if n := decodes.Load(); n != 2 {
		t.Errorf("decodes = %d, want 2 after eviction", n)
	}
	if st := c.Stats(); st.Evictions != 1 || st.Hits != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestGet_ErrorsNotCached(t *testing.T) {
	var calls atomic.Int64
	boom := errors.New("boom")
	loader := LoaderFunc(func(path string) (models.ColorProfile, error) {
		calls.Add(1)
		return models.ColorProfile{}, boom
	})
	c := New(loader, WithJanitor(false))
	defer c.Close()

	for i := 0; i < 2; i++ {
		if _, err := c.Get(context.Background(), "bad.png"); !errors.Is(err, boom) {
			t.Fatalf("Get: got %v, want boom", err)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
	if c.Len() != 0 {
		t.Errorf("failed load was cached")
	}
}

func TestGet_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	loader := LoaderFunc(func(path string) (models.ColorProfile, error) {
		<-release
		return profileOf(1), nil
	})
	c := New(loader, WithJanitor(false))
	defer c.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Get(ctx, "slow.png"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestJanitorEvicts(t *testing.T) {
	loader := LoaderFunc(func(path string) (models.ColorProfile, error) {
		return profileOf(1), nil
	})
	c := New(loader, WithTTL(20*time.Millisecond))
	defer c.Close()

	if _, err := c.Get(context.Background(), "x.png"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.Len() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Error("janitor did not evict idle entry")
}

func TestCloseWithoutJanitor(t *testing.T) {
	c := New(LoaderFunc(func(string) (models.ColorProfile, error) { return profileOf(1), nil }), WithJanitor(false))
	if _, err := c.Get(context.Background(), "x.png"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	c.Close()
	c.Close()
	if _, err := c.Get(context.Background(), "x.png"); err != nil {
		t.Fatalf("Get after Close: %v", err)
	}
	if st := c.Stats(); st.Loads != 1 || st.Hits != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestCloseIdempotent(t *testing.T) {
	c := New(LoaderFunc(func(string) (models.ColorProfile, error) { return profileOf(1), nil }))
	c.Close()
	c.Close()
}
