package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestManager_RunsAndCollectsErrors(t *testing.T) {
	// Arrange
	g := NewManager(4)
	var ran atomic.Int32
	boom := errors.New("boom")

	// Act
	for range 3 {
		g.Go(context.Background(), "ok", func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}
	g.Go(context.Background(), "fail", func(context.Context) error { return boom })
	err := g.Wait()

	// Assert
	if ran.Load() != 3 {
		t.Fatalf("ran = %d, want 3", ran.Load())
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to contain boom, got %v", err)
	}
}

func TestManager_RecoversPanic(t *testing.T) {
	g := NewManager(1)

	g.Go(context.Background(), "panic", func(context.Context) error { panic("bad") })

	if err := g.Wait(); err != nil {
		t.Fatalf("panic must not surface as error, got %v", err)
	}
}

func TestManager_DropsWhenSaturated(t *testing.T) {
	g := NewManager(1)
	release := make(chan struct{})
	started := make(chan struct{})

	if !g.Go(context.Background(), "block", func(context.Context) error {
		close(started)
		<-release
		return nil
	}) {
		t.Fatalf("first task must start")
	}
	<-started

	if g.Go(context.Background(), "extra", func(context.Context) error { return nil }) {
		t.Fatalf("second task must be dropped while saturated")
	}

	close(release)
	_ = g.Wait()
}

func TestManager_ClosedAfterWait(t *testing.T) {
	g := NewManager(1)
	_ = g.Wait()

	if g.Go(context.Background(), "late", func(context.Context) error { return nil }) {
		t.Fatalf("task must be dropped after Wait")
	}
}

func TestManager_NilSafe(t *testing.T) {
	var g *Manager
	if g.Go(context.Background(), "x", func(context.Context) error { return nil }) {
		t.Fatalf("nil manager must not start tasks")
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("nil manager Wait = %v", err)
	}
}
