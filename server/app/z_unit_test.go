package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type failing struct{ shut atomic.Bool }

func (f *failing) Run() error { return errors.New("listen failed") }

func (f *failing) Shutdown(ctx context.Context) error {
	f.shut.Store(true)
	return nil
}

func TestRunContextCancel(t *testing.T) {
	var closed atomic.Int32
	c := NewCloser(func(ctx context.Context) error {
		closed.Add(1)
		return nil
	})
	a := NewWith(c)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	if err := a.RunContext(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if closed.Load() != 1 {
		t.Fatalf("closer ran %d times", closed.Load())
	}
	// 重入
	if err := c.Shutdown(context.Background()); err != nil || closed.Load() != 1 {
		t.Fatalf("second shutdown: err=%v runs=%d", err, closed.Load())
	}
}

func TestRunContextComponentError(t *testing.T) {
	f := &failing{}
	c := NewCloser(nil)
	err := NewWith(f, c).RunContext(context.Background())
	if err == nil || err.Error() != "listen failed" {
		t.Fatalf("err = %v", err)
	}
	if !f.shut.Load() {
		t.Fatalf("failing component was not shut down")
	}
}

// stuck 的 Run 在 Shutdown 後也不返回。
type stuck struct{ block chan struct{} }

func (s *stuck) Run() error {
	<-s.block
	return nil
}

func (s *stuck) Shutdown(ctx context.Context) error { return nil }

func TestRunContextShutdownTimeout(t *testing.T) {
	s := &stuck{block: make(chan struct{})}
	defer close(s.block)
	a := New(WithShutdownTimeout(20 * time.Millisecond))
	a.Register(s)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := a.RunContext(ctx); err == nil {
		t.Fatalf("expected timeout error")
	}
	if time.Since(start) > time.Second {
		t.Fatalf("shutdown did not respect timeout")
	}
}
