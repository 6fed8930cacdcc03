package events

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_SyncSubscribersRunInOrder(t *testing.T) {
	b := NewBus()
	var mu sync.Mutex
	var order []int

	for i := 0; i < 5; i++ {
		i := i
		b.SubscribeSync("deck:1", func(GenerationEvent) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}

	b.Publish("deck:1", New(EventStarted, nil))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestBus_PublishOnlyReachesSubscribedChannel(t *testing.T) {
	b := NewBus()
	var got int32
	b.SubscribeSync("deck:1", func(GenerationEvent) { atomic.AddInt32(&got, 1) })

	b.Publish("deck:2", New(EventStarted, nil))

	assert.EqualValues(t, 0, atomic.LoadInt32(&got))
}

func TestBus_AsyncSubscriberPanicDoesNotBlockOthers(t *testing.T) {
	b := NewBus()
	done := make(chan struct{})

	b.SubscribeAsync("deck:1", func(GenerationEvent) { panic("boom") })
	b.SubscribeAsync("deck:1", func(GenerationEvent) { close(done) })

	b.Publish("deck:1", New(EventStarted, nil))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second async subscriber never ran")
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	b := NewBus()
	var got int32
	sub := b.SubscribeSync("deck:1", func(GenerationEvent) { atomic.AddInt32(&got, 1) })

	b.Unsubscribe(sub)
	b.Publish("deck:1", New(EventStarted, nil))

	assert.EqualValues(t, 0, atomic.LoadInt32(&got))
}

func TestBus_PublishDoesNotWaitForAsync(t *testing.T) {
	b := NewBus()
	release := make(chan struct{})
	started := make(chan struct{})

	b.SubscribeAsync("deck:1", func(GenerationEvent) {
		close(started)
		<-release
	})

	done := make(chan struct{})
	go func() {
		b.Publish("deck:1", New(EventStarted, nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish should not block on async subscribers")
	}

	require.Eventually(t, func() bool {
		select {
		case <-started:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
	close(release)
}
