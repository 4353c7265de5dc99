package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testCoordinator() (*Coordinator, *InMemoryBackend) {
	b := NewInMemoryBackend()
	return NewCoordinator(b, zap.NewNop()), b
}

func TestRemember_CachesComputedValue(t *testing.T) {
	c, _ := testCoordinator()
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := Remember(ctx, c, "k", []string{"t"}, time.Minute, compute)
		if err != nil {
			t.Fatalf("remember: %v", err)
		}
		if v != 42 {
			t.Fatalf("expected 42, got %d", v)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one compute, got %d", calls)
	}
}

func TestRemember_ComputeErrorNotCached(t *testing.T) {
	c, _ := testCoordinator()
	ctx := context.Background()

	boom := errors.New("boom")
	calls := 0
	_, err := Remember(ctx, c, "k", nil, time.Minute, func(context.Context) (int, error) {
		calls++
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
	v, err := Remember(ctx, c, "k", nil, time.Minute, func(context.Context) (int, error) {
		calls++
		return 7, nil
	})
	if err != nil || v != 7 {
		t.Fatalf("expected fresh compute after failure, got %d %v", v, err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 computes, got %d", calls)
	}
}

func TestInvalidate_DropsTaggedEntriesOnly(t *testing.T) {
	c, _ := testCoordinator()
	ctx := context.Background()

	calls := map[string]int{}
	remember := func(key, tag string) {
		_, _ = Remember(ctx, c, key, []string{tag}, time.Minute, func(context.Context) (string, error) {
			calls[key]++
			return key, nil
		})
	}

	remember("a", "subject:question:1")
	remember("b", "subject:question:2")
	c.Invalidate(ctx, "subject:question:1")
	remember("a", "subject:question:1")
	remember("b", "subject:question:2")

	if calls["a"] != 2 {
		t.Fatalf("expected invalidated key recomputed, got %d", calls["a"])
	}
	if calls["b"] != 1 {
		t.Fatalf("expected untagged key untouched, got %d", calls["b"])
	}
}

func TestInvalidate_RedundantCallsAreSafe(t *testing.T) {
	c, _ := testCoordinator()
	ctx := context.Background()

	c.Invalidate(ctx, "no-such-tag")
	c.Invalidate(ctx, "no-such-tag")
	c.Invalidate(ctx)
}

func TestRemember_TTLExpiry(t *testing.T) {
	b := NewInMemoryBackend()
	now := time.Unix(1000, 0)
	b.now = func() time.Time { return now }
	c := NewCoordinator(b, zap.NewNop())
	ctx := context.Background()

	calls := 0
	compute := func(context.Context) (int, error) { calls++; return 1, nil }

	_, _ = Remember(ctx, c, "k", nil, time.Minute, compute)
	now = now.Add(2 * time.Minute)
	_, _ = Remember(ctx, c, "k", nil, time.Minute, compute)

	if calls != 2 {
		t.Fatalf("expected recompute after expiry, got %d calls", calls)
	}
}

type failingBackend struct{}

func (failingBackend) Get(context.Context, string, any) (bool, error) {
	return false, errors.New("backend down")
}
func (failingBackend) Set(context.Context, string, any, []string, time.Duration) error {
	return errors.New("backend down")
}
func (failingBackend) Invalidate(context.Context, ...string) error {
	return errors.New("backend down")
}

// A dead backend degrades Remember to a direct compute and swallows
// Invalidate failures.
func TestFailOpenOnBackendErrors(t *testing.T) {
	c := NewCoordinator(failingBackend{}, zap.NewNop())
	ctx := context.Background()

	v, err := Remember(ctx, c, "k", []string{"t"}, time.Minute, func(context.Context) (string, error) {
		return "computed", nil
	})
	if err != nil {
		t.Fatalf("expected fail-open, got %v", err)
	}
	if v != "computed" {
		t.Fatalf("expected computed value, got %q", v)
	}

	c.Invalidate(ctx, "t")
}

// A nil coordinator (cache disabled) behaves like a direct compute.
func TestNilCoordinator(t *testing.T) {
	var c *Coordinator
	v, err := Remember(context.Background(), c, "k", nil, time.Minute, func(context.Context) (int, error) {
		return 5, nil
	})
	if err != nil || v != 5 {
		t.Fatalf("expected direct compute, got %d %v", v, err)
	}
	c.Invalidate(context.Background(), "t")
}
