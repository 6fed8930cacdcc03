package imagesearch

import (
	"sync"

	"github.com/nextslide/deckengine/pkg/models"
)

// PendingImageMap holds, for one deck's lifetime, the candidate image
// list ImageService has assigned to each slide but SlideGenerator has not
// yet consumed. PendingFor is idempotent (it does not remove the entry);
// Apply removes the entry atomically once a slide generation step has
// consumed it.
type PendingImageMap struct {
	mu      sync.Mutex
	bySlide map[string][]models.Image
}

func newPendingImageMap() *PendingImageMap {
	return &PendingImageMap{bySlide: make(map[string][]models.Image)}
}

// set stores images as slideID's current candidate list, replacing any
// prior assignment.
func (m *PendingImageMap) set(slideID string, images []models.Image) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bySlide[slideID] = images
}

// PendingFor returns slideID's current candidate list without removing
// it. Safe to call repeatedly; returns nil if nothing is assigned.
func (m *PendingImageMap) PendingFor(slideID string) []models.Image {
	m.mu.Lock()
	defer m.mu.Unlock()
	images := m.bySlide[slideID]
	if images == nil {
		return nil
	}
	out := make([]models.Image, len(images))
	copy(out, images)
	return out
}

// Apply atomically returns and removes slideID's candidate list. The
// second return value is false if nothing was assigned.
func (m *PendingImageMap) Apply(slideID string) ([]models.Image, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	images, ok := m.bySlide[slideID]
	if !ok {
		return nil, false
	}
	delete(m.bySlide, slideID)
	return images, true
}
