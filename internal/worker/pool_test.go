package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_DoReturnsTaskResult(t *testing.T) {
	p := NewPool(2, 4, nil)
	defer p.Close()

	want := errors.New("boom")
	if err := p.Do(context.Background(), func(context.Context) error { return want }); !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
	if err := p.Do(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p := NewPool(2, 0, nil)
	defer p.Close()

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Do(context.Background(), func(context.Context) error {
				n := running.Add(1)
				for {
					old := peak.Load()
					if n <= old || peak.CompareAndSwap(old, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()
	if peak.Load() > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestPool_RecoversPanic(t *testing.T) {
	p := NewPool(1, 0, nil)
	defer p.Close()

	err := p.Do(context.Background(), func(context.Context) error { panic("bad resume") })
	if err == nil {
		t.Fatal("panic should surface as an error")
	}
	if err := p.Do(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("pool unusable after panic: %v", err)
	}
}

func TestPool_CanceledWhileQueued(t *testing.T) {
	p := NewPool(1, 0, nil)
	defer p.Close()

	block := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = p.Do(context.Background(), func(context.Context) error {
			close(started)
			<-block
			return nil
		})
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var ran atomic.Bool
	err := p.Do(ctx, func(context.Context) error { ran.Store(true); return nil })
	close(block)

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
	if ran.Load() {
		t.Fatal("task ran although its context expired before it was picked up")
	}
}

func TestPool_DoAfterClose(t *testing.T) {
	p := NewPool(1, 0, nil)
	p.Close()
	p.Close()
	if err := p.Do(context.Background(), func(context.Context) error { return nil }); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("err = %v, want ErrPoolClosed", err)
	}
}
