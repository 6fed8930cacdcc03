// Package ratelimit wraps golang.org/x/time/rate into the multi-dimension
// limiter the orchestrator consults before issuing an AI call: one global
// bucket shared by every deck in the process, plus one bucket per user
// created lazily on first use.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter enforces a global rate limit and a per-user rate limit. Both must
// admit a request before it proceeds.
type Limiter struct {
	global *rate.Limiter

	mu       sync.Mutex
	perUser  map[string]*rate.Limiter
	userRPS  rate.Limit
	userBurst int
}

// New builds a Limiter from requests-per-second and burst settings for the
// global bucket and the template used to create each user's bucket.
func New(globalRPS float64, globalBurst int, perUserRPS float64, perUserBurst int) *Limiter {
	return &Limiter{
		global:    rate.NewLimiter(rate.Limit(globalRPS), globalBurst),
		perUser:   make(map[string]*rate.Limiter),
		userRPS:   rate.Limit(perUserRPS),
		userBurst: perUserBurst,
	}
}

// Wait blocks until both the global and the user's bucket admit one
// request, or ctx is done first.
func (l *Limiter) Wait(ctx context.Context, userID string) error {
	if err := l.global.Wait(ctx); err != nil {
		return err
	}
	return l.userLimiter(userID).Wait(ctx)
}

// Allow reports whether a request for userID may proceed immediately,
// consuming a token from both buckets if so. A denial from the user bucket
// does not give back the global token already spent; Wait behaves the same
// way when its wait on the user bucket fails.
func (l *Limiter) Allow(userID string) bool {
	if !l.global.Allow() {
		return false
	}
	return l.userLimiter(userID).Allow()
}

func (l *Limiter) userLimiter(userID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.perUser[userID]
	if !ok {
		lim = rate.NewLimiter(l.userRPS, l.userBurst)
		l.perUser[userID] = lim
	}
	return lim
}
