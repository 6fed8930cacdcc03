package imagesearch

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nextslide/deckengine/pkg/events"
	"github.com/nextslide/deckengine/pkg/models"
)

// defaultImagesPerTopic is how many candidates are fetched and cached per
// topic ("typically 6" per the background search contract).
const defaultImagesPerTopic = 6

// Handle lets the caller cancel a deck's background image search before
// it finishes on its own.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the background search. Safe to call more than once.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done reports whether the background search has finished, by
// cancellation or completion.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Service runs ImageService's background search: it derives a topic per
// slide, queries Provider(s) once per unique topic, caches results, and
// assigns each slide its best-matching topic's candidates.
type Service struct {
	providers      []Provider
	imagesPerTopic int

	mu   sync.RWMutex
	maps map[string]*PendingImageMap
}

// New builds a Service querying providers in order (first provider to
// return a non-empty result for a topic wins; later providers are not
// consulted for that topic) and caching up to imagesPerTopic candidates
// per topic. imagesPerTopic <= 0 uses the default of 6.
func New(imagesPerTopic int, providers ...Provider) *Service {
	if imagesPerTopic <= 0 {
		imagesPerTopic = defaultImagesPerTopic
	}
	return &Service{
		providers:      providers,
		imagesPerTopic: imagesPerTopic,
		maps:           make(map[string]*PendingImageMap),
	}
}

// PendingFor returns deckID's current candidate list for slideID, per
// PendingImageMap.PendingFor. Returns nil if the deck has no background
// search registered or the slide has no assignment.
func (s *Service) PendingFor(deckID, slideID string) []models.Image {
	pm := s.mapFor(deckID)
	if pm == nil {
		return nil
	}
	return pm.PendingFor(slideID)
}

// Apply removes and returns deckID's candidate list for slideID.
func (s *Service) Apply(deckID, slideID string) ([]models.Image, bool) {
	pm := s.mapFor(deckID)
	if pm == nil {
		return nil, false
	}
	return pm.Apply(slideID)
}

func (s *Service) mapFor(deckID string) *PendingImageMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maps[deckID]
}

// StartBackgroundSearch derives topics from outline's slides, searches
// for each in a background goroutine, and assigns per-slide candidate
// lists as topics resolve, emitting topic_images_found and
// slide_images_found through onEvent. The returned Handle cancels the
// search early; the map it populates outlives the search itself for the
// deck's PendingImageMap lifetime, until the caller discards the Service
// or calls Apply for every slide.
func (s *Service) StartBackgroundSearch(ctx context.Context, outline models.DeckOutline, deckID string, onEvent func(events.GenerationEvent)) *Handle {
	searchCtx, cancel := context.WithCancel(ctx)
	pm := newPendingImageMap()

	s.mu.Lock()
	s.maps[deckID] = pm
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.run(searchCtx, outline, pm, onEvent)
	}()

	return &Handle{cancel: cancel, done: done}
}

func (s *Service) run(ctx context.Context, outline models.DeckOutline, pm *PendingImageMap, onEvent func(events.GenerationEvent)) {
	topicToSlides := make(map[string][]string)
	for _, slide := range outline.Slides {
		topic := buildTopic(slide.Title + " " + slide.Content)
		if topic == "" {
			continue
		}
		topicToSlides[topic] = append(topicToSlides[topic], slide.ID)
	}

	for topic, slideIDs := range topicToSlides {
		if ctx.Err() != nil {
			return
		}

		images := s.searchTopic(ctx, topic)
		if onEvent != nil {
			onEvent(events.New(events.EventTopicImagesFound, map[string]any{
				"topic":  topic,
				"images": images,
			}))
		}
		if len(images) == 0 {
			continue
		}

		perSlide := images
		if len(perSlide) > s.imagesPerTopic {
			perSlide = perSlide[:s.imagesPerTopic]
		}
		for _, slideID := range slideIDs {
			pm.set(slideID, perSlide)
			if onEvent != nil {
				onEvent(events.New(events.EventSlideImagesFound, map[string]any{
					"slideId": slideID,
					"images":  perSlide,
				}))
			}
		}
	}
}

// searchTopic tries each provider in order, returning the first
// non-empty result. A provider error is logged and treated as empty so
// background image search never aborts deck generation.
func (s *Service) searchTopic(ctx context.Context, topic string) []models.Image {
	for _, p := range s.providers {
		images, err := p.Search(ctx, topic, s.imagesPerTopic)
		if err != nil {
			slog.WarnContext(ctx, "image provider search failed", "topic", topic, "error", err)
			continue
		}
		if len(images) > 0 {
			return images
		}
	}
	return nil
}
