package token

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestCoordinator_RefreshPersistsNewToken(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	_ = storage.Set(ctx, &Token{AccessToken: "old-a", RefreshToken: "old-r"})

	c := NewCoordinator(storage, func(_ context.Context, current *Token) (*Token, error) {
		if current.RefreshToken != "old-r" {
			t.Errorf("refresh got token %+v, want stored pair", current)
		}
		return &Token{AccessToken: "new-a", RefreshToken: "new-r"}, nil
	}, nil)

	fresh, err := c.Refresh(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.AccessToken != "new-a" {
		t.Errorf("access token = %q, want %q", fresh.AccessToken, "new-a")
	}

	stored, _ := storage.Get(ctx)
	if stored == nil || stored.AccessToken != "new-a" {
		t.Errorf("stored = %+v, want the fresh pair", stored)
	}
	if c.InFlight() {
		t.Error("in-flight marker not cleared")
	}
}

func TestCoordinator_NoToken(t *testing.T) {
	c := NewCoordinator(NewMemoryStorage(), func(context.Context, *Token) (*Token, error) {
		t.Fatal("upstream must not be called without a token")
		return nil, nil
	}, nil)

	_, err := c.Refresh(context.Background(), nil)
	if !errors.Is(err, ErrNoToken) {
		t.Errorf("error = %v, want ErrNoToken", err)
	}
}

func TestCoordinator_FailureEvictsToken(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	_ = storage.Set(ctx, &Token{AccessToken: "a", RefreshToken: "r"})

	upstream := errors.New("invalid_grant")
	c := NewCoordinator(storage, func(context.Context, *Token) (*Token, error) {
		return nil, upstream
	}, nil)

	_, err := c.Refresh(ctx, nil)
	var rerr *RefreshError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v (%T), want *RefreshError", err, err)
	}
	if !errors.Is(err, upstream) {
		t.Errorf("RefreshError does not wrap the cause: %v", err)
	}

	stored, _ := storage.Get(ctx)
	if stored != nil {
		t.Errorf("stale token not removed: %+v", stored)
	}
	if c.InFlight() {
		t.Error("in-flight marker not cleared after failure")
	}
}

func TestCoordinator_SingleFlight(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	_ = storage.Set(ctx, &Token{AccessToken: "a", RefreshToken: "r"})

	var upstreamCalls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	c := NewCoordinator(storage, func(context.Context, *Token) (*Token, error) {
		upstreamCalls.Add(1)
		close(started)
		<-release
		return &Token{AccessToken: "fresh", RefreshToken: "fresh-r"}, nil
	}, nil)

	const n = 16
	results := make([]*Token, n)
	errs := make([]error, n)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = c.Refresh(ctx, nil)
	}()
	<-started // leader is inside the upstream call

	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Refresh(ctx, nil)
		}(i)
	}

	// Give the joiners time to attach before the leader settles.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := upstreamCalls.Load(); got != 1 {
		t.Fatalf("upstream calls = %d, want exactly 1", got)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error: %v", i, errs[i])
		}
		if results[i].AccessToken != "fresh" {
			t.Errorf("caller %d token = %+v, want fresh", i, results[i])
		}
	}
}

func TestCoordinator_AllWaitersSeeSameFailure(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	_ = storage.Set(ctx, &Token{AccessToken: "a", RefreshToken: "r"})

	release := make(chan struct{})
	started := make(chan struct{})
	c := NewCoordinator(storage, func(context.Context, *Token) (*Token, error) {
		close(started)
		<-release
		return nil, errors.New("boom")
	}, nil)

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[0] = c.Refresh(ctx, nil)
	}()
	<-started
	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Refresh(ctx, nil)
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	var rerr *RefreshError
	for i := 0; i < n; i++ {
		if !errors.As(errs[i], &rerr) {
			t.Errorf("caller %d error = %v, want *RefreshError", i, errs[i])
		}
	}
}

func TestCoordinator_WaiterCancellation(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	_ = storage.Set(ctx, &Token{AccessToken: "a", RefreshToken: "r"})

	started := make(chan struct{})
	release := make(chan struct{})
	c := NewCoordinator(storage, func(context.Context, *Token) (*Token, error) {
		close(started)
		<-release
		return &Token{AccessToken: "fresh"}, nil
	}, nil)

	go func() { _, _ = c.Refresh(ctx, nil) }()
	<-started

	waiterCtx, cancel := context.WithCancel(ctx)
	cancel()
	_, err := c.Refresh(waiterCtx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled waiter error = %v, want context.Canceled", err)
	}
	close(release)
}
