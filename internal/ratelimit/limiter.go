package ratelimit

import (
	"sync"
	"time"
)

// LimitResult contains the result of a rate limit check
type LimitResult struct {
	Allowed    bool          // Whether the request is allowed
	RetryAfter time.Duration // Suggested wait time if not allowed
	LimitType  string        // "global" or routine name
	Remaining  float64       // Remaining tokens in the relevant bucket
}

// Limiter manages rate limiting with global and per-routine buckets
type Limiter struct {
	mu             sync.RWMutex
	enabled        bool
	globalBucket   *Bucket
	routineBuckets map[string]*Bucket
	config         *Config
	metrics        *Metrics
}

// NewLimiter creates a new rate limiter from configuration
func NewLimiter(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	l := &Limiter{
		enabled:        cfg.Enabled,
		routineBuckets: make(map[string]*Bucket),
		config:         cfg,
		metrics:        NewMetrics(),
	}

	// Create global bucket
	l.globalBucket = NewBucket(
		float64(cfg.Global.BurstSize),
		cfg.Global.RequestsPerSecond,
	)

	// Create per-routine buckets
	for _, routineLimit := range cfg.Routines {
		l.routineBuckets[routineLimit.Name] = NewBucket(
			float64(routineLimit.BurstSize),
			routineLimit.RequestsPerSecond,
		)
	}

	return l
}

// Allow checks if a request for the given routine is allowed
// Returns a LimitResult with the decision and metadata
func (l *Limiter) Allow(routineName string) *LimitResult {
	if !l.enabled {
		return &LimitResult{
			Allowed:   true,
			LimitType: "disabled",
			Remaining: -1,
		}
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	// Check global limit first
	if !l.globalBucket.TryConsume(1) {
		retryAfter := l.globalBucket.TimeToWait(1)
		l.metrics.RecordRejection("global", routineName)
		return &LimitResult{
			Allowed:    false,
			RetryAfter: retryAfter,
			LimitType:  "global",
			Remaining:  l.globalBucket.Tokens(),
		}
	}

	// Check routine-specific limit if configured
	if routineBucket, exists := l.routineBuckets[routineName]; exists {
		if !routineBucket.TryConsume(1) {
			// Refund the global token since we're rejecting
			l.globalBucket.mu.Lock()
			l.globalBucket.tokens++
			if l.globalBucket.tokens > l.globalBucket.capacity {
				l.globalBucket.tokens = l.globalBucket.capacity
			}
			l.globalBucket.mu.Unlock()
			retryAfter := routineBucket.TimeToWait(1)
			l.metrics.RecordRejection(routineName, routineName)
			return &LimitResult{
				Allowed:    false,
				RetryAfter: retryAfter,
				LimitType:  routineName,
				Remaining:  routineBucket.Tokens(),
			}
		}
		l.metrics.RecordAllowed(routineName)
		return &LimitResult{
			Allowed:   true,
			LimitType: routineName,
			Remaining: routineBucket.Tokens(),
		}
	}

	// No routine-specific limit, global check passed
	l.metrics.RecordAllowed(routineName)
	return &LimitResult{
		Allowed:   true,
		LimitType: "global",
		Remaining: l.globalBucket.Tokens(),
	}
}

// IsEnabled returns whether rate limiting is enabled
func (l *Limiter) IsEnabled() bool {
	return l.enabled
}

// SetEnabled enables or disables rate limiting
func (l *Limiter) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// GetMetrics returns the current metrics
func (l *Limiter) GetMetrics() *Metrics {
	return l.metrics
}

// GetRoutineBucket returns the bucket for a specific routine (for testing)
func (l *Limiter) GetRoutineBucket(routineName string) *Bucket {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.routineBuckets[routineName]
}

// GetGlobalBucket returns the global bucket (for testing)
func (l *Limiter) GetGlobalBucket() *Bucket {
	return l.globalBucket
}

// Reset resets all buckets to full capacity
func (l *Limiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.globalBucket.Reset()
	for _, bucket := range l.routineBuckets {
		bucket.Reset()
	}
}

// Stats returns current limiter statistics
type Stats struct {
	Enabled       bool               `json:"enabled"`
	GlobalTokens  float64            `json:"global_tokens"`
	RoutineTokens map[string]float64 `json:"routine_tokens"`
}

// GetStats returns current limiter statistics
func (l *Limiter) GetStats() *Stats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := &Stats{
		Enabled:      l.enabled,
		GlobalTokens: l.globalBucket.Tokens(),
		RoutineTokens:   make(map[string]float64),
	}

	for name, bucket := range l.routineBuckets {
		stats.RoutineTokens[name] = bucket.Tokens()
	}

	return stats
}
