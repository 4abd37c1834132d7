// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestPromiseResolve(t *testing.T) {
	f, p := NewPromise[int]()
	if f.Completed() {
		t.Fatal("new future should be pending")
	}
	if _, err := f.Result(); !errors.Is(err, ErrPending) {
		t.Errorf("Result() on pending future = %v, want ErrPending", err)
	}

	if err := p.Resolve(42); err != nil {
		t.Fatalf("Resolve() = %v", err)
	}
	v, err := f.Result()
	if err != nil || v != 42 {
		t.Errorf("Result() = (%d, %v), want (42, nil)", v, err)
	}
	select {
	case <-f.Done():
	default:
		t.Error("Done() channel should be closed after Resolve")
	}
}

func TestPromiseSettleTwice(t *testing.T) {
	_, p := NewPromise[string]()
	if err := p.Resolve("a"); err != nil {
		t.Fatalf("first Resolve() = %v", err)
	}
	if err := p.Reject(errors.New("late")); !errors.Is(err, ErrAlreadyCompleted) {
		t.Errorf("second settle = %v, want ErrAlreadyCompleted", err)
	}
}

func TestFailed(t *testing.T) {
	boom := errors.New("boom")
	_, err := Failed[int](boom).Result()
	if !errors.Is(err, boom) {
		t.Errorf("Result() error = %v, want %v", err, boom)
	}
}

func TestAwait(t *testing.T) {
	f, p := NewPromise[int]()
	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = p.Resolve(7)
	}()
	v, err := f.Await(context.Background())
	if err != nil || v != 7 {
		t.Errorf("Await() = (%d, %v), want (7, nil)", v, err)
	}
}

func TestAwaitContextDone(t *testing.T) {
	f, _ := NewPromise[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Await() error = %v, want context.Canceled", err)
	}
}

func TestCallbacksRunOnceConcurrently(t *testing.T) {
	f, p := NewPromise[int]()
	var mu sync.Mutex
	calls := 0

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.onComplete(func() {
				mu.Lock()
				calls++
				mu.Unlock()
			})
		}()
	}
	_ = p.Resolve(1)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 50 {
		t.Errorf("callbacks ran %d times, want 50", calls)
	}
}
