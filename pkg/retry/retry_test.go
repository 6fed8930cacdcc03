package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nextslide/deckengine/pkg/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy() Policy {
	return Policy{
		Default:     BackoffParams{BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
		MaxAttempts: 3,
	}
}

func TestRetrier_SucceedsWithoutRetryOnFirstTry(t *testing.T) {
	r := New(fastPolicy())
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrier_RetriesRetryableErrorUntilSuccess(t *testing.T) {
	r := New(fastPolicy())
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errs.New(errs.KindAITimeout, errors.New("timeout"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestRetrier_StopsImmediatelyOnFatalKind(t *testing.T) {
	r := New(fastPolicy())
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errs.New(errs.KindConfigInvalid, errors.New("bad config"))
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "fatal kind should not be retried")
}

func TestRetrier_StopsAfterMaxAttempts(t *testing.T) {
	r := New(fastPolicy())
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errs.New(errs.KindAITimeout, errors.New("still timing out"))
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetrier_UnclassifiedErrorIsTreatedAsFatal(t *testing.T) {
	r := New(fastPolicy())
	calls := 0
	err := r.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("raw, unclassified error")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetrier_ContextCancelAbortsLoop(t *testing.T) {
	r := New(Policy{Default: BackoffParams{BaseDelay: time.Second, MaxDelay: time.Second}, MaxAttempts: 5})
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- r.Do(ctx, func(context.Context) error {
			calls++
			return errs.New(errs.KindAITimeout, errors.New("timeout"))
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Do did not return after context cancel")
	}
	assert.Equal(t, 1, calls)
}
