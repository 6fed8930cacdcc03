// Package pauseresume tracks in-flight deck generations, persists resumable
// snapshots of their progress, and gates whether a paused generation is
// eligible to resume.
package pauseresume

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nextslide/deckengine/pkg/models"
)

// SnapshotStore persists GenerationState snapshots keyed by generationId.
// Implementations are free to choose their own durability (Postgres,
// disk, memory for tests); Manager only needs save/load/delete.
type SnapshotStore interface {
	Save(ctx context.Context, state models.GenerationState) error
	Load(ctx context.Context, generationID string) (models.GenerationState, bool, error)
	Delete(ctx context.Context, generationID string) error
}

// Handle is returned by register and lets the orchestrator signal a
// generation's cancellation without going through Manager's lock again.
type Handle struct {
	GenerationID string
	cancel       context.CancelFunc
}

// Cancel requests the generation's in-flight work stop at its next
// suspension point. It does not itself persist a snapshot; callers wanting
// a resumable pause should call Manager.Pause instead.
func (h *Handle) Cancel() {
	h.cancel()
}

type tracked struct {
	state  models.GenerationState
	cancel context.CancelFunc
}

// Manager is the single in-process authority over which generations are
// running, paused, or resumable. GenerationState is owned by Manager;
// DeckOrchestrator only mutates it through these operations.
type Manager struct {
	store SnapshotStore

	mu     sync.RWMutex
	active map[string]*tracked // generationId -> tracked, only while running or paused in-memory
}

// New constructs a Manager backed by store.
func New(store SnapshotStore) *Manager {
	return &Manager{
		store:  store,
		active: make(map[string]*tracked),
	}
}

// Register begins tracking a generation and returns a Handle the caller
// uses to request cancellation. It is an error to register a
// generationId that is already tracked.
func (m *Manager) Register(ctx context.Context, state models.GenerationState) (*Handle, context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[state.GenerationID]; exists {
		return nil, nil, fmt.Errorf("generation %s is already registered", state.GenerationID)
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.active[state.GenerationID] = &tracked{state: state, cancel: cancel}

	return &Handle{GenerationID: state.GenerationID, cancel: cancel}, runCtx, nil
}

// UpdateState replaces the in-memory snapshot for a registered generation
// without persisting it, so frequent slide-completion updates do not each
// incur a write. Callers checkpoint with Snapshot when they want it durable.
func (m *Manager) UpdateState(generationID string, mutate func(*models.GenerationState)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.active[generationID]
	if !ok {
		return
	}
	mutate(&t.state)
}

// Snapshot persists the current in-memory state for generationID without
// changing its run state or cancelling anything — a checkpoint a caller can
// take at phase boundaries so a crash loses at most one phase of progress.
func (m *Manager) Snapshot(ctx context.Context, generationID string) error {
	m.mu.RLock()
	t, ok := m.active[generationID]
	var state models.GenerationState
	if ok {
		state = t.state
	}
	m.mu.RUnlock()

	if !ok {
		return fmt.Errorf("generation %s is not registered", generationID)
	}
	state.UpdatedAt = time.Now()
	return m.store.Save(ctx, state)
}

// Pause cancels generationID's in-flight tasks, persists its snapshot with
// runState=paused, and removes it from the active set. It returns false if
// generationID was not registered.
func (m *Manager) Pause(ctx context.Context, generationID string) bool {
	m.mu.Lock()
	t, ok := m.active[generationID]
	if ok {
		delete(m.active, generationID)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}

	t.cancel()
	t.state.RunState = models.RunStatePaused
	t.state.CurrentPhase = models.RunStatePaused
	t.state.UpdatedAt = time.Now()

	if err := m.store.Save(ctx, t.state); err != nil {
		slog.Error("pauseresume: failed to persist paused snapshot", "generation_id", generationID, "error", err)
		return false
	}
	return true
}

// CanResume reports whether generationID has a durable snapshot whose
// runState is paused.
func (m *Manager) CanResume(ctx context.Context, generationID string) bool {
	state, ok, err := m.store.Load(ctx, generationID)
	if err != nil {
		slog.Warn("pauseresume: failed to load snapshot for resume check", "generation_id", generationID, "error", err)
		return false
	}
	return ok && state.RunState == models.RunStatePaused
}

// GetResumeContext reconstructs the inputs needed to resume generationID:
// its original outline and options, plus which slides are already
// completed versus still pending. It returns an error if no paused
// snapshot exists.
func (m *Manager) GetResumeContext(ctx context.Context, generationID string) (models.ResumeContext, error) {
	state, ok, err := m.store.Load(ctx, generationID)
	if err != nil {
		return models.ResumeContext{}, fmt.Errorf("load snapshot for %s: %w", generationID, err)
	}
	if !ok {
		return models.ResumeContext{}, fmt.Errorf("%w: %s", ErrNoSnapshot, generationID)
	}
	if state.RunState != models.RunStatePaused {
		return models.ResumeContext{}, fmt.Errorf("%w: generation %s is %s, not paused", ErrNotPaused, generationID, state.RunState)
	}

	return models.ResumeContext{
		Outline:         state.Outline,
		DeckID:          state.DeckID,
		Options:         state.Options,
		CompletedSlides: state.CompletedSlideIDs(),
		PendingSlides:   state.PendingSlideIDs(),
	}, nil
}

// MarkResumed transitions generationID out of paused and re-registers it
// as active, returning a fresh Handle and run context for the orchestrator
// to continue under.
func (m *Manager) MarkResumed(ctx context.Context, generationID string) (*Handle, context.Context, error) {
	state, ok, err := m.store.Load(ctx, generationID)
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot for %s: %w", generationID, err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoSnapshot, generationID)
	}

	state.RunState = models.RunStateSlidesInProgress
	state.CurrentPhase = models.RunStateSlidesInProgress
	state.UpdatedAt = time.Now()

	return m.Register(ctx, state)
}

// Forget drops generationID from the active set without persisting or
// cancelling anything, for the deck_complete/failed terminal path where no
// further resume is possible.
func (m *Manager) Forget(generationID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, generationID)
}
