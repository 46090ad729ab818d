package ratelimiter

import (
	"context"
	"testing"
	"time"
)

// TestNew verifies limiter creation across rate/burst combinations.
func TestNew(t *testing.T) {
	tests := []struct {
		name             string
		acceptsPerSecond uint
		burst            uint
	}{
		{
			name:             "standard rate",
			acceptsPerSecond: 100,
			burst:            200,
		},
		{
			name:             "burst below rate",
			acceptsPerSecond: 100,
			burst:            1,
		},
		{
			name:             "unlimited (zero rate)",
			acceptsPerSecond: 0,
			burst:            0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter := New(tt.acceptsPerSecond, tt.burst)
			if limiter == nil {
				t.Fatal("New() returned nil")
			}
			if limiter.limiter == nil {
				t.Fatal("internal limiter is nil")
			}
		})
	}
}

// TestAllow verifies that Allow() enforces the burst capacity.
func TestAllow(t *testing.T) {
	limiter := New(10, 10)

	for i := 0; i < 10; i++ {
		if !limiter.Allow() {
			t.Fatalf("accept %d should be allowed (within burst)", i)
		}
	}

	if limiter.Allow() {
		t.Error("accept beyond burst capacity should be denied")
	}
}

// TestAllowUnlimited verifies that a zero rate never throttles.
func TestAllowUnlimited(t *testing.T) {
	limiter := New(0, 0)

	for i := 0; i < 10000; i++ {
		if !limiter.Allow() {
			t.Fatalf("accept %d denied by unlimited limiter", i)
		}
	}
}

// TestWaitCancelled verifies that Wait respects context cancellation.
func TestWaitCancelled(t *testing.T) {
	// Rate of 1/s with empty bucket: the second Wait must block.
	limiter := New(1, 1)
	if !limiter.Allow() {
		t.Fatal("first accept should drain the bucket")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := limiter.Wait(ctx)
	elapsed := time.Since(start)

	if err == nil {
		t.Error("expected context error from Wait, got nil")
	}
	if elapsed > time.Second {
		t.Errorf("Wait did not return promptly after cancellation: %v", elapsed)
	}
}

// TestWaitAcquires verifies that Wait eventually obtains a token.
func TestWaitAcquires(t *testing.T) {
	limiter := New(100, 1)
	if !limiter.Allow() {
		t.Fatal("first accept should drain the bucket")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := limiter.Wait(ctx); err != nil {
		t.Errorf("Wait failed to acquire a token: %v", err)
	}
}
