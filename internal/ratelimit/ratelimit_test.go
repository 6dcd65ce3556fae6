package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestMemory_AllowsUpToCeilingThenDenies(t *testing.T) {
	lim := NewMemory(3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if !lim.Allow(ctx, "1.2.3.4") {
			t.Fatalf("request %d should be allowed", i)
		}
	}
	if lim.Allow(ctx, "1.2.3.4") {
		t.Error("request 4 should be denied")
	}
}

func TestMemory_KeysAreIndependent(t *testing.T) {
	lim := NewMemory(1, time.Minute)
	ctx := context.Background()

	if !lim.Allow(ctx, "1.2.3.4") {
		t.Fatal("first key should be allowed")
	}
	if !lim.Allow(ctx, "5.6.7.8") {
		t.Error("other key must have its own window")
	}
}

func TestMemory_WindowResetReallows(t *testing.T) {
	lim := NewMemory(1, time.Minute)
	now := time.Now()
	lim.now = func() time.Time { return now }
	ctx := context.Background()

	if !lim.Allow(ctx, "1.2.3.4") {
		t.Fatal("first request should be allowed")
	}
	if lim.Allow(ctx, "1.2.3.4") {
		t.Fatal("second request should be denied")
	}

	now = now.Add(61 * time.Second)
	if !lim.Allow(ctx, "1.2.3.4") {
		t.Error("request after window reset should be allowed")
	}
}

func TestMemory_SweepEvictsExpiredKeys(t *testing.T) {
	lim := NewMemory(5, time.Second)
	now := time.Now()
	lim.now = func() time.Time { return now }
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		lim.Allow(ctx, key)
	}

	// Past both every window and the sweep interval.
	now = now.Add(2 * time.Minute)
	lim.Allow(ctx, "d")

	lim.mu.Lock()
	n := len(lim.entries)
	lim.mu.Unlock()
	if n != 1 {
		t.Errorf("expected only the fresh key to survive the sweep, got %d entries", n)
	}
}

func TestRedis_AllowsUpToCeilingThenDenies(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	lim := NewRedis(client, 2, time.Minute)
	ctx := context.Background()

	if !lim.Allow(ctx, "1.2.3.4") || !lim.Allow(ctx, "1.2.3.4") {
		t.Fatal("first two requests should be allowed")
	}
	if lim.Allow(ctx, "1.2.3.4") {
		t.Error("third request should be denied")
	}
}

func TestRedis_WindowExpiryReallows(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	lim := NewRedis(client, 1, time.Minute)
	ctx := context.Background()

	if !lim.Allow(ctx, "1.2.3.4") {
		t.Fatal("first request should be allowed")
	}
	if lim.Allow(ctx, "1.2.3.4") {
		t.Fatal("second request should be denied")
	}

	mr.FastForward(61 * time.Second)
	if !lim.Allow(ctx, "1.2.3.4") {
		t.Error("request after TTL expiry should be allowed")
	}
}

func TestRedis_FailsOpenWhenUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	lim := NewRedis(client, 1, time.Minute)
	mr.Close()

	if !lim.Allow(context.Background(), "1.2.3.4") {
		t.Error("limiter must fail open when redis is down")
	}
}
