package events

import (
	"sync"
	"time"
)

// ThrottledEmitter coalesces high-frequency progress events so a fast
// producer (e.g. per-character streaming progress within one slide) cannot
// flood subscribers. At most one non-priority event per channel is emitted
// per window; intermediate events are dropped in favor of the latest one.
// Priority events (EventType.IsPriority) always bypass the window.
type ThrottledEmitter struct {
	window time.Duration
	sink   func(channel string, ev GenerationEvent)

	mu      sync.Mutex
	pending map[string]GenerationEvent
	timers  map[string]*time.Timer
}

// NewThrottledEmitter builds an emitter that calls sink directly for
// priority events and at most once per window for everything else.
func NewThrottledEmitter(window time.Duration, sink func(channel string, ev GenerationEvent)) *ThrottledEmitter {
	return &ThrottledEmitter{
		window:  window,
		sink:    sink,
		pending: make(map[string]GenerationEvent),
		timers:  make(map[string]*time.Timer),
	}
}

// Emit submits ev for delivery on channel, subject to throttling.
func (e *ThrottledEmitter) Emit(channel string, ev GenerationEvent) {
	if ev.Type.IsPriority() {
		e.flush(channel)
		e.sink(channel, ev)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, scheduled := e.timers[channel]; scheduled {
		e.pending[channel] = ev
		return
	}

	e.pending[channel] = ev
	e.timers[channel] = time.AfterFunc(e.window, func() { e.fire(channel) })
}

func (e *ThrottledEmitter) fire(channel string) {
	e.mu.Lock()
	ev, ok := e.pending[channel]
	delete(e.pending, channel)
	delete(e.timers, channel)
	e.mu.Unlock()
	if ok {
		e.sink(channel, ev)
	}
}

// flush emits and cancels any pending event for channel immediately, used
// before a priority event so ordering on the wire stays monotonic.
func (e *ThrottledEmitter) flush(channel string) {
	e.mu.Lock()
	timer, scheduled := e.timers[channel]
	ev, hasPending := e.pending[channel]
	delete(e.pending, channel)
	delete(e.timers, channel)
	e.mu.Unlock()

	if scheduled {
		timer.Stop()
	}
	if hasPending {
		e.sink(channel, ev)
	}
}

// Stop cancels all pending timers without flushing them.
func (e *ThrottledEmitter) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ch, t := range e.timers {
		t.Stop()
		delete(e.timers, ch)
		delete(e.pending, ch)
	}
}
