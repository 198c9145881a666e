package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/juju/clock/testclock"
)

// setupTestRedis creates an in-memory Redis server for testing
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		redisClient.Close()
		mr.Close()
	})

	return redisClient
}

func TestTokenBucket_UploadBurstIsCapped(t *testing.T) {
	clk := testclock.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	bucket := NewTokenBucket(setupTestRedis(t), 5, 5).WithClock(clk)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		d, err := bucket.Take(ctx, "u1", "uploads")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !d.Allowed {
			t.Fatalf("Expected upload %d to be allowed", i+1)
		}
		if d.Remaining != int64(4-i) || d.Limit != 5 {
			t.Fatalf("Unexpected decision %+v", d)
		}
	}

	allowed, err := bucket.Allow(ctx, "u1", "uploads")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("Expected the sixth upload to be denied")
	}

	// Other users have their own bucket
	if allowed, _ := bucket.Allow(ctx, "u2", "uploads"); !allowed {
		t.Fatal("Expected u2 to be unaffected by u1")
	}
}

func TestTokenBucket_Refills(t *testing.T) {
	clk := testclock.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	bucket := NewTokenBucket(setupTestRedis(t), 4, 2).WithClock(clk)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		bucket.Allow(ctx, "u1", "uploads")
	}
	remaining, err := bucket.GetRemaining(ctx, "u1", "uploads")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("Expected 0 remaining tokens, got %d", remaining)
	}

	clk.Advance(30 * time.Second)
	if remaining, _ := bucket.GetRemaining(ctx, "u1", "uploads"); remaining != 1 {
		t.Fatalf("Expected 1 token after half a minute, got %d", remaining)
	}

	clk.Advance(10 * time.Minute)
	if remaining, _ := bucket.GetRemaining(ctx, "u1", "uploads"); remaining != 4 {
		t.Fatalf("Expected refill to stop at capacity, got %d", remaining)
	}
}

func TestTokenBucket_Reset(t *testing.T) {
	bucket := NewTokenBucket(setupTestRedis(t), 3, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		bucket.Allow(ctx, "u1", "uploads")
	}
	if err := bucket.Reset(ctx, "u1", "uploads"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	remaining, err := bucket.GetRemaining(ctx, "u1", "uploads")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if remaining != 3 {
		t.Fatalf("Expected 3 remaining tokens after reset, got %d", remaining)
	}
}
