// Package retry implements the backoff-with-jitter retry loop the
// orchestrator and its sub-components use whenever an errs.DeckError's
// disposition says the failure is not fatal.
package retry

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/nextslide/deckengine/pkg/errs"
)

// Policy supplies the base/cap delay for one error kind's exponential
// backoff. Callers without a kind-specific entry fall back to Default.
type Policy struct {
	Default BackoffParams
	ByKind  map[errs.Kind]BackoffParams
	MaxAttempts int
}

// BackoffParams is one kind's exponential-backoff-with-jitter parameters.
type BackoffParams struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

func (p Policy) paramsFor(kind errs.Kind) BackoffParams {
	if bp, ok := p.ByKind[kind]; ok {
		return bp
	}
	return p.Default
}

// Retrier retries an operation according to Policy, honoring each error's
// disposition: Fatal errors are returned immediately, Skippable errors are
// returned once MaxAttempts is exhausted, and Retryable errors are retried
// with exponential backoff plus up to 20% jitter on top of the capped delay.
type Retrier struct {
	policy Policy
}

// New builds a Retrier from the given policy.
func New(policy Policy) *Retrier {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}
	return &Retrier{policy: policy}
}

// Do runs fn, retrying on retryable and skippable errors up to MaxAttempts total
// attempts. It returns the last error seen if every attempt fails, or nil
// on the first success. ctx cancellation aborts the retry loop immediately.
func (r *Retrier) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		// An error that never went through errs.New carries no classification.
		// Unknown errors are not safe to retry, so they are treated as fatal.
		kind, classified := errs.As(err)
		if !classified || kind.DefaultDisposition() == errs.Fatal || attempt == r.policy.MaxAttempts {
			return err
		}

		params := r.policy.paramsFor(kind)
		delay := backoffDelay(params, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return lastErr
}

// backoffDelay computes an exponential delay capped at params.MaxDelay, then
// adds up to 20% jitter on top: the capped value is a guaranteed floor, so a
// retrier never fires before its backoff has genuinely elapsed, while the
// jitter still keeps many concurrent retriers from converging on the same
// retry instant.
func backoffDelay(params BackoffParams, attempt int) time.Duration {
	if params.BaseDelay <= 0 {
		params.BaseDelay = 500 * time.Millisecond
	}
	if params.MaxDelay <= 0 {
		params.MaxDelay = 30 * time.Second
	}
	exp := float64(params.BaseDelay) * float64(uint64(1)<<uint(attempt-1))
	capped := min(exp, float64(params.MaxDelay))
	return time.Duration(capped + rand.Float64()*0.2*capped)
}
