package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoConcurrentGetsShareOneLoad(t *testing.T) {
	m := New[int64, string]("users")
	var calls int32
	started := make(chan struct{})
	release := make(chan struct{})
	load := func(context.Context) (string, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		return "alice", nil
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := m.Get(context.Background(), 1, false, load)
			if err != nil {
				t.Errorf("get: %v", err)
				return
			}
			results <- v
		}()
	}
	<-started
	if !m.Loading(1) || !m.LoadingAny() {
		t.Fatalf("expected key 1 to be loading")
	}
	close(release)
	wg.Wait()
	close(results)

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one load, got %d", got)
	}
	for v := range results {
		if v != "alice" {
			t.Fatalf("unexpected value %q", v)
		}
	}
	if m.Loading(1) {
		t.Fatalf("load should be finished")
	}
}

func TestMemoInvalidateCausesRefetch(t *testing.T) {
	m := New[int64, int]("users")
	var calls int32
	load := func(context.Context) (int, error) {
		return int(atomic.AddInt32(&calls, 1)), nil
	}
	ctx := context.Background()

	if v, _ := m.Get(ctx, 1, false, load); v != 1 {
		t.Fatalf("first get = %d", v)
	}
	if v, _ := m.Get(ctx, 1, false, load); v != 1 {
		t.Fatalf("cached get = %d", v)
	}
	m.Invalidate(1)
	if v, _ := m.Get(ctx, 1, false, load); v != 2 {
		t.Fatalf("get after invalidate = %d", v)
	}
	m.InvalidateAll()
	if v, _ := m.Get(ctx, 1, false, load); v != 3 {
		t.Fatalf("get after invalidate all = %d", v)
	}
	if v, _ := m.Get(ctx, 1, true, load); v != 4 {
		t.Fatalf("forced get = %d", v)
	}
	stats := m.Stats()
	if stats.Hits != 1 || stats.Misses != 4 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestMemoDoesNotCacheFailures(t *testing.T) {
	m := New[string, int]("images")
	boom := errors.New("boom")
	if _, err := m.Get(context.Background(), "a", false, func(context.Context) (int, error) {
		return 0, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if _, ok := m.Peek("a"); ok {
		t.Fatalf("failed load must not be cached")
	}
	v, err := m.Get(context.Background(), "a", false, func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("retry after failure: %d %v", v, err)
	}
}

func TestMemoInvalidateDuringLoadKeepsResultOut(t *testing.T) {
	m := New[int64, string]("sessions")
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan string)
	go func() {
		v, _ := m.Get(context.Background(), 9, false, func(context.Context) (string, error) {
			close(started)
			<-release
			return "stale", nil
		})
		done <- v
	}()
	<-started
	m.Invalidate(9)
	close(release)
	if v := <-done; v != "stale" {
		t.Fatalf("caller should still receive its result, got %q", v)
	}
	if _, ok := m.Peek(9); ok {
		t.Fatalf("load racing an invalidation must not repopulate the cache")
	}
}

func TestMemoCallerCancellationDoesNotAbortSharedLoad(t *testing.T) {
	m := New[int64, string]("users")
	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error)
	go func() {
		_, err := m.Get(ctx, 1, false, func(loadCtx context.Context) (string, error) {
			<-release
			if loadCtx.Err() != nil {
				return "", loadCtx.Err()
			}
			return "bob", nil
		})
		errCh <- err
	}()
	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
	close(release)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, ok := m.Peek(1); ok {
			if v != "bob" {
				t.Fatalf("unexpected cached value %q", v)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("shared load should finish and cache its value")
}

func TestValueUpdateAndInvalidate(t *testing.T) {
	v := NewValue[[]string]("genres")
	if v.Valid() {
		t.Fatalf("new value should be empty")
	}
	got, err := v.Get(context.Background(), false, func(context.Context) ([]string, error) {
		return []string{"Jazz", "Rock"}, nil
	})
	if err != nil || len(got) != 2 {
		t.Fatalf("get: %v %v", got, err)
	}
	v.Update(func(list []string) []string { return list[:1] })
	if cached, _ := v.Peek(); len(cached) != 1 {
		t.Fatalf("update not applied: %v", cached)
	}
	v.Invalidate()
	if v.Valid() {
		t.Fatalf("invalidate should drop the value")
	}
}
