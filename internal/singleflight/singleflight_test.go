package singleflight

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGroup_Coalesces(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	var calls atomic.Int32
	release := make(chan struct{})

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	results := make([]int, n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			v, _, err := g.Do(context.Background(), "k", func() (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			if err != nil {
				t.Errorf("Do: %v", err)
			}
			results[i] = v
		}()
	}

	// Let followers pile up behind the leader before releasing it.
	for g.InFlight() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got < 1 || got > n {
		t.Fatalf("unexpected call count %d", got)
	}
	for i, v := range results {
		if v != 42 {
			t.Fatalf("result %d = %d", i, v)
		}
	}
	if g.InFlight() != 0 {
		t.Fatal("flight must be cleared after completion")
	}
}

func TestGroup_FollowerContextCancel(t *testing.T) {
	t.Parallel()

	var g Group[string, int]
	release := make(chan struct{})
	leaderDone := make(chan struct{})

	go func() {
		defer close(leaderDone)
		_, _, _ = g.Do(context.Background(), "k", func() (int, error) {
			<-release
			return 1, nil
		})
	}()
	for g.InFlight() == 0 {
		time.Sleep(time.Millisecond)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := g.Do(ctx, "k", func() (int, error) { return 2, nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("follower want context.Canceled, got %v", err)
	}

	close(release)
	<-leaderDone
}

func TestGroup_SharedFlag(t *testing.T) {
	t.Parallel()

	var g Group[int, int]
	v, shared, err := g.Do(context.Background(), 1, func() (int, error) { return 7, nil })
	if err != nil || v != 7 || shared {
		t.Fatalf("solo call: v=%d shared=%v err=%v", v, shared, err)
	}
}
