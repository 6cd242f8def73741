package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis container test in short mode")
	}

	ctx := context.Background()
	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStateTracker_Exec(t *testing.T) {
	// Arrange
	ctx := context.Background()
	st := New(newRedis(t))
	calls := 0
	fn := func(context.Context) error {
		calls++
		return nil
	}

	// Act
	first := st.Exec(ctx, "deploy:1", fn, WithStateTTL(time.Minute))
	second := st.Exec(ctx, "deploy:1", fn, WithStateTTL(time.Minute))

	// Assert
	if first != nil {
		t.Fatalf("first Exec: %v", first)
	}
	if !errors.Is(second, ErrAlreadyCompleted) {
		t.Fatalf("second Exec = %v, want ErrAlreadyCompleted", second)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestStateTracker_ExecFailure(t *testing.T) {
	ctx := context.Background()
	st := New(newRedis(t))
	boom := errors.New("boom")

	err := st.Exec(ctx, "deploy:2", func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("Exec = %v, want boom", err)
	}

	err = st.Exec(ctx, "deploy:2", func(context.Context) error { return nil })
	if !errors.Is(err, ErrAlreadyFailed) {
		t.Fatalf("Exec = %v, want ErrAlreadyFailed", err)
	}
}

func TestStateTracker_ExecRetryOnFailure(t *testing.T) {
	ctx := context.Background()
	st := New(newRedis(t))

	_ = st.Exec(ctx, "deploy:3", func(context.Context) error { return errors.New("boom") }, WithRetryOnFailure())

	if err := st.Exec(ctx, "deploy:3", func(context.Context) error { return nil }, WithRetryOnFailure()); err != nil {
		t.Fatalf("retry Exec = %v", err)
	}
}

func TestStateTracker_InProgress(t *testing.T) {
	ctx := context.Background()
	st := New(newRedis(t))

	state, err := st.Acquire(ctx, "deploy:4", time.Minute)
	if err != nil || state != StateNone {
		t.Fatalf("Acquire = %s, %v", state, err)
	}

	err = st.Exec(ctx, "deploy:4", func(context.Context) error { return nil })
	if !errors.Is(err, ErrAlreadyInProgress) {
		t.Fatalf("Exec = %v, want ErrAlreadyInProgress", err)
	}
}
