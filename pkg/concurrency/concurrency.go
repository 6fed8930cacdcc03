// Package concurrency bounds how many slides may be generating at once,
// across three nested dimensions, and guarantees only one generation runs
// per deck at a time.
package concurrency

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Manager holds the three weighted semaphores slide generation acquires
// before starting work: a process-wide cap, a per-user cap, and a per-deck
// cap. Slots are always acquired in that fixed order — global, then user,
// then deck — and released in the reverse order, so two goroutines can
// never deadlock waiting on each other's slots.
type Manager struct {
	global *semaphore.Weighted

	mu       sync.Mutex
	perUser  map[string]*semaphore.Weighted
	perDeck  map[string]*semaphore.Weighted
	userCap  int64
	deckCap  int64

	busyMu sync.Mutex
	busy   map[string]bool // deck IDs currently holding the exclusive deck lock
}

// NewManager builds a Manager with the given capacities.
func NewManager(globalSlots, perUserSlots, perDeckSlots int) *Manager {
	return &Manager{
		global:  semaphore.NewWeighted(int64(globalSlots)),
		perUser: make(map[string]*semaphore.Weighted),
		perDeck: make(map[string]*semaphore.Weighted),
		userCap: int64(perUserSlots),
		deckCap: int64(perDeckSlots),
		busy:    make(map[string]bool),
	}
}

// SlideSlot represents one acquired unit of slide-generation capacity. The
// caller must call Release exactly once, regardless of whether the slide
// generation succeeded.
type SlideSlot struct {
	global  *semaphore.Weighted
	user    *semaphore.Weighted
	deck    *semaphore.Weighted
}

// AcquireSlide blocks until a slot is free at all three levels for userID
// generating into deckID, or ctx is done. Acquisition order is fixed
// (global, user, deck); any later failure releases slots already taken in
// that order before returning.
func (m *Manager) AcquireSlide(ctx context.Context, userID, deckID string) (*SlideSlot, error) {
	if err := m.global.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire global slide slot: %w", err)
	}

	userSem := m.userSemaphore(userID)
	if err := userSem.Acquire(ctx, 1); err != nil {
		m.global.Release(1)
		return nil, fmt.Errorf("acquire per-user slide slot: %w", err)
	}

	deckSem := m.deckSemaphore(deckID)
	if err := deckSem.Acquire(ctx, 1); err != nil {
		userSem.Release(1)
		m.global.Release(1)
		return nil, fmt.Errorf("acquire per-deck slide slot: %w", err)
	}

	return &SlideSlot{global: m.global, user: userSem, deck: deckSem}, nil
}

// Release returns the slot's three acquired units, in reverse acquisition
// order (deck, user, global).
func (s *SlideSlot) Release() {
	s.deck.Release(1)
	s.user.Release(1)
	s.global.Release(1)
}

func (m *Manager) userSemaphore(userID string) *semaphore.Weighted {
	m.mu.Lock()
	defer m.mu.Unlock()
	sem, ok := m.perUser[userID]
	if !ok {
		sem = semaphore.NewWeighted(m.userCap)
		m.perUser[userID] = sem
	}
	return sem
}

func (m *Manager) deckSemaphore(deckID string) *semaphore.Weighted {
	m.mu.Lock()
	defer m.mu.Unlock()
	sem, ok := m.perDeck[deckID]
	if !ok {
		sem = semaphore.NewWeighted(m.deckCap)
		m.perDeck[deckID] = sem
	}
	return sem
}

// ErrDeckBusy is returned by TryLockDeck when another generation already
// holds the deck's exclusive lock.
type ErrDeckBusy struct {
	DeckID string
}

func (e *ErrDeckBusy) Error() string {
	return fmt.Sprintf("deck %s already has a generation in progress", e.DeckID)
}

// TryLockDeck marks deckID as busy, failing if it already is. Only one
// DeckOrchestrator.Orchestrate run may be in flight per deck; this is
// enforced independently of the slide-slot semaphores, which bound
// concurrency within a single run, not across runs.
func (m *Manager) TryLockDeck(deckID string) error {
	m.busyMu.Lock()
	defer m.busyMu.Unlock()
	if m.busy[deckID] {
		return &ErrDeckBusy{DeckID: deckID}
	}
	m.busy[deckID] = true
	return nil
}

// UnlockDeck clears deckID's busy marker. Safe to call even if the deck
// was never locked.
func (m *Manager) UnlockDeck(deckID string) {
	m.busyMu.Lock()
	defer m.busyMu.Unlock()
	delete(m.busy, deckID)
}
