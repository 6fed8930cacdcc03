// Package events provides the generation event stream contract: typed event
// constants, an in-process publish/subscribe bus, a throttled emitter for
// high-frequency progress events, and an optional Postgres NOTIFY-backed
// publisher + WebSocket ConnectionManager for cross-pod delivery.
package events

import "time"

// EventType enumerates the GenerationEvent wire types delivered to clients.
type EventType string

// Generation event types.
const (
	EventStarted          EventType = "started"
	EventOutlineStructure EventType = "outline_structure"
	EventThemeGenerated   EventType = "theme_generated"
	EventMediaProcessed   EventType = "media_processed"
	EventSlideStarted     EventType = "slide_started"
	EventSlideSubstep     EventType = "slide_substep"
	EventSlideGenerated   EventType = "slide_generated"
	EventSlideSkipped     EventType = "slide_skipped"
	EventSlideError       EventType = "slide_error"
	EventTopicImagesFound EventType = "topic_images_found"
	EventSlideImagesFound EventType = "slide_images_found"
	EventDeckComplete     EventType = "deck_complete"
	EventError            EventType = "error"
	EventEnd              EventType = "end"
)

// SlideSubstep names the sub-phase reported by slide_substep events.
type SlideSubstep string

// Slide substeps.
const (
	SubstepPreparingContext SlideSubstep = "preparing_context"
	SubstepRAGLookup        SlideSubstep = "rag_lookup"
	SubstepAIGeneration     SlideSubstep = "ai_generation"
	SubstepSaving           SlideSubstep = "saving"
)

// priorityTypes bypass ThrottledEmitter's coalescing window: errors, slide
// lifecycle terminal events, theme_generated, and phase transitions always
// deliver immediately rather than waiting for the next throttle tick.
var priorityTypes = map[EventType]bool{
	EventError:            true,
	EventSlideGenerated:   true,
	EventSlideSkipped:     true,
	EventSlideError:       true,
	EventThemeGenerated:   true,
	EventStarted:          true,
	EventOutlineStructure: true,
	EventMediaProcessed:   true,
	EventDeckComplete:     true,
	EventEnd:              true,
	EventSlideStarted:     true,
	EventTopicImagesFound: true,
	EventSlideImagesFound: true,
}

// IsPriority reports whether events of this type bypass throttling.
func (t EventType) IsPriority() bool {
	return priorityTypes[t]
}

// GenerationEvent is a single discrete step in the composition pipeline
// delivered to clients over SSE or WebSocket. DBEventID is absent on events
// as they're emitted live; Publisher and the catchup path stamp it once the
// event has a row in generation_events, so a reconnecting client can resume
// from the last id it saw.
type GenerationEvent struct {
	Type      EventType      `json:"type"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
	DBEventID *int64         `json:"db_event_id,omitempty"`
}

// New builds a GenerationEvent stamped with the current time.
func New(typ EventType, data map[string]any) GenerationEvent {
	if data == nil {
		data = map[string]any{}
	}
	return GenerationEvent{
		Type:      typ,
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Data:      data,
	}
}

// Progress returns the event's "progress" data field and whether it is
// present.
func (e GenerationEvent) Progress() (int, bool) {
	v, ok := e.Data["progress"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// DeckChannel returns the NOTIFY/subscription channel name for a deck's
// generation events. Format: "deck:{deck_id}".
func DeckChannel(deckID string) string {
	return "deck:" + deckID
}

// GlobalDecksChannel carries coarse deck-level status for list/dashboard
// views, mirroring the per-deck channel's terminal events only.
const GlobalDecksChannel = "decks"

// ClientMessage is the JSON structure for client → server WebSocket messages.
type ClientMessage struct {
	Action      string `json:"action"`
	Channel     string `json:"channel,omitempty"`
	LastEventID *int   `json:"last_event_id,omitempty"`
}
