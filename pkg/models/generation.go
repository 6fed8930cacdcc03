package models

import "time"

// GenerationOptions configures a single orchestrate() run: how parallel it
// is, how long to wait on AI calls, and which optional phases to run.
type GenerationOptions struct {
	MaxParallel          int           `json:"maxParallel"`
	TimeoutSeconds       int           `json:"timeoutSeconds"`
	MaxRetries           int           `json:"maxRetries"`
	DelayBetweenSlides   time.Duration `json:"delayBetweenSlides"`
	AsyncImages          bool          `json:"asyncImages"`
	PrefetchImages       bool          `json:"prefetchImages"`
	EnableVisualAnalysis bool          `json:"enableVisualAnalysis"`
	UserID               string        `json:"userId,omitempty"`
	GenerationID         string        `json:"generationId,omitempty"`
}

// WithDefaults returns a copy of o with zero-valued fields replaced by the
// documented minimums, so a caller supplying a bare GenerationOptions{}
// still gets a runnable configuration.
func (o GenerationOptions) WithDefaults() GenerationOptions {
	if o.MaxParallel < 1 {
		o.MaxParallel = 1
	}
	if o.TimeoutSeconds < 10 {
		o.TimeoutSeconds = 10
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	return o
}

// RunState is the coarse phase a generation run is currently in.
type RunState string

// Generation run states.
const (
	RunStateInitializing     RunState = "initializing"
	RunStateTheme            RunState = "theme"
	RunStateMedia            RunState = "media"
	RunStateSlidesInProgress RunState = "slides_in_progress"
	RunStatePaused           RunState = "paused"
	RunStateFinalizing       RunState = "finalizing"
	RunStateComplete         RunState = "complete"
	RunStateFailed           RunState = "failed"
)

// SlideRunState tracks one slide's progress within a GenerationState
// snapshot, independent of the authoritative Slide.Status stored by
// Persistence.
type SlideRunState struct {
	Status   SlideStatus `json:"status"`
	Attempts int         `json:"attempts"`
}

// GenerationState is the durable snapshot PauseResumeManager persists:
// everything needed to reconstruct SlideContexts for the slides that have
// not completed yet, without regenerating the ones that have.
type GenerationState struct {
	GenerationID   string                   `json:"generationId"`
	DeckID         string                   `json:"deckId"`
	Outline        DeckOutline              `json:"outline"`
	Options        GenerationOptions        `json:"options"`
	CurrentPhase   RunState                 `json:"currentPhase"`
	SlideStates    map[string]SlideRunState `json:"slideStates"`
	CompletedSteps int                      `json:"completedSteps"`
	TotalSteps     int                      `json:"totalSteps"`
	RunState       RunState                 `json:"runState"`
	UpdatedAt      time.Time                `json:"updatedAt"`
}

// CompletedSlideIDs returns the IDs of slides whose snapshot status is
// completed, in outline order.
func (s GenerationState) CompletedSlideIDs() []string {
	var ids []string
	for _, so := range s.Outline.Slides {
		if st, ok := s.SlideStates[so.ID]; ok && st.Status == SlideStatusCompleted {
			ids = append(ids, so.ID)
		}
	}
	return ids
}

// PendingSlideIDs returns the IDs of slides that have not completed,
// in outline order — the set ResumeContext hands back to the orchestrator
// for regeneration.
func (s GenerationState) PendingSlideIDs() []string {
	var ids []string
	for _, so := range s.Outline.Slides {
		st, ok := s.SlideStates[so.ID]
		if !ok || st.Status != SlideStatusCompleted {
			ids = append(ids, so.ID)
		}
	}
	return ids
}

// ResumeContext is the reconstructed state getResumeContext hands back to
// the orchestrator: the original inputs plus a split of which slides are
// already done versus still pending.
type ResumeContext struct {
	Outline         DeckOutline       `json:"outline"`
	DeckID          string            `json:"deckId"`
	Options         GenerationOptions `json:"options"`
	CompletedSlides []string          `json:"completedSlides"`
	PendingSlides   []string          `json:"pendingSlides"`
}
