// Package ratelimit provides per-key token bucket rate limiting for the
// ecalab MCP tools.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrRateLimited is returned by CheckLimit when a tool's bucket is empty.
var ErrRateLimited = errors.New("rate limit exceeded")

// Limit describes one token bucket: Rate tokens per second, holding at most Burst.
type Limit struct {
	Rate  float64
	Burst int
}

// PerMinute returns a Limit refilling n tokens per minute.
func PerMinute(n float64, burst int) Limit {
	return Limit{Rate: n / 60.0, Burst: burst}
}

// Limiter implements a per-key token bucket rate limiter.
// It is safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64
	burst   int
	nowFunc func() time.Time
}

type bucket struct {
	tokens    float64
	lastCheck time.Time
}

// NewLimiter creates a rate limiter with the given rate (tokens/sec) and burst size.
// New keys start with a full bucket.
func NewLimiter(rate float64, burst int) *Limiter {
	return &Limiter{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		nowFunc: time.Now,
	}
}

// refill returns the bucket for key with tokens credited up to now.
// Callers must hold l.mu.
func (l *Limiter) refill(key string) *bucket {
	now := l.nowFunc()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.burst), lastCheck: now}
		l.buckets[key] = b
		return b
	}

	if elapsed := now.Sub(b.lastCheck).Seconds(); elapsed > 0 {
		b.tokens = min(b.tokens+l.rate*elapsed, float64(l.burst))
		b.lastCheck = now
	}
	return b
}

// Allow reports whether a request for key may proceed, consuming a token if so.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

// RetryAfter returns how long until key has a token available.
// It returns zero when a request would be allowed now, and a negative
// duration when the bucket never refills.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	b := l.refill(key)
	if b.tokens >= 1.0 {
		return 0
	}
	if l.rate <= 0 {
		return -1
	}
	missing := 1.0 - b.tokens
	return time.Duration(missing / l.rate * float64(time.Second))
}

// ToolLimits are the default per-tool budgets. Simulation-heavy tools get
// small bursts; cheap lookups get larger ones.
var ToolLimits = map[string]Limit{
	"eca_evolve":         PerMinute(60, 10),
	"eca_classify":       PerMinute(30, 5),
	"eca_classify_batch": PerMinute(5, 1),
	"eca_summary":        PerMinute(5, 1),
	"eca_rule_table":     PerMinute(120, 20),
	"eca_export":         PerMinute(10, 2),
}

// ToolLimiters maps tool names to their rate limiters.
type ToolLimiters map[string]*Limiter

// NewToolLimiters creates one limiter per entry in ToolLimits.
func NewToolLimiters() ToolLimiters {
	limiters := make(ToolLimiters, len(ToolLimits))
	for name, limit := range ToolLimits {
		limiters[name] = NewLimiter(limit.Rate, limit.Burst)
	}
	return limiters
}

// CheckLimit consumes a token for toolName. Tools without a limiter are
// always allowed. A rejection wraps ErrRateLimited.
func CheckLimit(limiters ToolLimiters, toolName string) error {
	limiter, ok := limiters[toolName]
	if !ok {
		return nil
	}

	if !limiter.Allow(toolName) {
		if wait := limiter.RetryAfter(toolName); wait > 0 {
			return fmt.Errorf("%w for %s, retry in %s", ErrRateLimited, toolName, wait.Round(time.Second))
		}
		return fmt.Errorf("%w for %s, please try again shortly", ErrRateLimited, toolName)
	}
	return nil
}
