// Package ratelimit provides token-bucket rate limiting for outbound
// calls to the external collaborators. Each service (query synthesis,
// search, verification) gets its own bucket since they are distinct
// services with distinct quotas.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Bucket is a token bucket: capacity tokens of burst, refilling at a
// steady rate. Safe for concurrent use.
type Bucket struct {
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewBucket creates a bucket that starts full.
func NewBucket(capacity int, refillRate float64) *Bucket {
	return &Bucket{
		capacity:   capacity,
		refillRate: refillRate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// refill adds tokens for elapsed time, capped at capacity.
// Caller must hold mu.
func (b *Bucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	b.tokens = min(float64(b.capacity), b.tokens+elapsed.Seconds()*b.refillRate)
	b.lastRefill = now
}

// Allow consumes a token if one is available.
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(time.Now())
	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true
	}
	return false
}

// Wait blocks until a token is available or ctx is done.
func (b *Bucket) Wait(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := time.Now()
		b.refill(now)
		if b.tokens >= 1.0 {
			b.tokens -= 1.0
			b.mu.Unlock()
			return nil
		}
		deficit := 1.0 - b.tokens
		wait := time.Duration(deficit / b.refillRate * float64(time.Second))
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Limits groups the per-service buckets for one run.
type Limits struct {
	Synthesis *Bucket
	Search    *Bucket
	Verify    *Bucket
}

// DefaultLimits returns conservative budgets suitable for free-tier
// provider quotas.
func DefaultLimits() *Limits {
	return &Limits{
		Synthesis: NewBucket(5, 1),
		Search:    NewBucket(2, 0.9), // Brave free tier allows ~1 req/s
		Verify:    NewBucket(10, 2),
	}
}
