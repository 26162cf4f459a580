package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSnapshotCachesWithinTTL(t *testing.T) {
	var loads int32
	snap := NewSnapshot(time.Minute, func(ctx context.Context) ([]int, error) {
		atomic.AddInt32(&loads, 1)
		return []int{1, 2, 3}, nil
	})

	for i := 0; i < 3; i++ {
		items, err := snap.Get(context.Background())
		if err != nil || len(items) != 3 {
			t.Fatalf("unexpected result %v (%v)", items, err)
		}
	}
	if loads != 1 {
		t.Errorf("expected one load, got %d", loads)
	}

	snap.Invalidate()
	if _, err := snap.Get(context.Background()); err != nil {
		t.Fatal(err)
	}
	if loads != 2 {
		t.Errorf("expected reload after invalidate, got %d loads", loads)
	}
}

func TestSnapshotFailureKeepsPrevious(t *testing.T) {
	fail := false
	snap := NewSnapshot(0, func(ctx context.Context) ([]string, error) {
		if fail {
			return nil, errors.New("down")
		}
		return []string{"a"}, nil
	})

	if _, err := snap.Get(context.Background()); err != nil {
		t.Fatal(err)
	}

	fail = true
	if _, err := snap.Get(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if snap.Size() != 1 {
		t.Errorf("expected previous items kept, got size %d", snap.Size())
	}
}

func TestSnapshotSharedLoadSurvivesCancelledCaller(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var loads int32
	snap := NewSnapshot(time.Minute, func(ctx context.Context) ([]int, error) {
		if atomic.AddInt32(&loads, 1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []int{1, 2}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := snap.Get(ctx)
		firstErr <- err
	}()
	<-started

	type result struct {
		items []int
		err   error
	}
	second := make(chan result, 1)
	go func() {
		items, err := snap.Get(context.Background())
		second <- result{items, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancelled caller to get context.Canceled, got %v", err)
	}

	close(release)
	res := <-second
	if res.err != nil || len(res.items) != 2 {
		t.Fatalf("live caller should get the shared result, got %v (%v)", res.items, res.err)
	}
	if snap.Size() != 2 {
		t.Errorf("expected cached items after shared load, got size %d", snap.Size())
	}
}
