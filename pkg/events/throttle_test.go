package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottledEmitter_CoalescesBurstIntoOneDelivery(t *testing.T) {
	var mu sync.Mutex
	var delivered []GenerationEvent
	e := NewThrottledEmitter(50*time.Millisecond, func(_ string, ev GenerationEvent) {
		mu.Lock()
		delivered = append(delivered, ev)
		mu.Unlock()
	})

	for i := 0; i < 10; i++ {
		e.Emit("deck:1", New(EventSlideSubstep, map[string]any{"progress": i}))
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(delivered) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	progress, ok := delivered[0].Progress()
	require.True(t, ok)
	assert.Equal(t, 9, progress, "latest value in the burst should win")
}

func TestThrottledEmitter_PriorityEventBypassesWindow(t *testing.T) {
	var mu sync.Mutex
	var delivered []GenerationEvent
	e := NewThrottledEmitter(time.Hour, func(_ string, ev GenerationEvent) {
		mu.Lock()
		delivered = append(delivered, ev)
		mu.Unlock()
	})

	e.Emit("deck:1", New(EventSlideSubstep, map[string]any{"progress": 1}))
	e.Emit("deck:1", New(EventSlideError, map[string]any{"message": "failed"}))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, delivered, 2, "priority event should flush the pending one and deliver immediately")
	assert.Equal(t, EventSlideSubstep, delivered[0].Type)
	assert.Equal(t, EventSlideError, delivered[1].Type)
}

func TestThrottledEmitter_SeparateChannelsThrottleIndependently(t *testing.T) {
	var mu sync.Mutex
	counts := map[string]int{}
	e := NewThrottledEmitter(50*time.Millisecond, func(ch string, _ GenerationEvent) {
		mu.Lock()
		counts[ch]++
		mu.Unlock()
	})

	e.Emit("deck:1", New(EventSlideSubstep, nil))
	e.Emit("deck:2", New(EventSlideSubstep, nil))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return counts["deck:1"] == 1 && counts["deck:2"] == 1
	}, time.Second, 5*time.Millisecond)
}

func TestThrottledEmitter_StopCancelsPending(t *testing.T) {
	var mu sync.Mutex
	delivered := false
	e := NewThrottledEmitter(20*time.Millisecond, func(_ string, _ GenerationEvent) {
		mu.Lock()
		delivered = true
		mu.Unlock()
	})

	e.Emit("deck:1", New(EventSlideSubstep, nil))
	e.Stop()
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.False(t, delivered)
}
