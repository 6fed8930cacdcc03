package imagesearch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nextslide/deckengine/pkg/events"
	"github.com/nextslide/deckengine/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	images map[string][]models.Image
}

func (f *fakeProvider) Search(ctx context.Context, topic string, perPage int) ([]models.Image, error) {
	return f.images[topic], nil
}

func TestStartBackgroundSearch_AssignsCandidatesAndEmitsEvents(t *testing.T) {
	title, content := "Rocket launch", "illustration of a bold rocket ship"
	topic := buildTopic(title + " " + content)
	provider := &fakeProvider{images: map[string][]models.Image{
		topic: {{URL: "r1"}, {URL: "r2"}},
	}}
	svc := New(6, provider)

	outline := models.DeckOutline{
		ID: "deck-1",
		Slides: []models.SlideOutline{
			{ID: "slide-1", Title: title, Content: content},
		},
	}

	var mu sync.Mutex
	var topicEvents, slideEvents int
	onEvent := func(ev events.GenerationEvent) {
		mu.Lock()
		defer mu.Unlock()
		switch ev.Type {
		case events.EventTopicImagesFound:
			topicEvents++
		case events.EventSlideImagesFound:
			slideEvents++
		}
	}

	handle := svc.StartBackgroundSearch(context.Background(), outline, "deck-1", onEvent)
	select {
	case <-handle.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("background search did not finish in time")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, topicEvents)
	assert.Equal(t, 1, slideEvents)

	pending := svc.PendingFor("deck-1", "slide-1")
	assert.Len(t, pending, 2)
}

func TestApply_RemovesAssignmentOnceConsumed(t *testing.T) {
	title, content := "Sunset", "beach photo at golden hour"
	topic := buildTopic(title + " " + content)
	provider := &fakeProvider{images: map[string][]models.Image{
		topic: {{URL: "s1"}},
	}}
	svc := New(6, provider)
	outline := models.DeckOutline{
		Slides: []models.SlideOutline{{ID: "slide-1", Title: title, Content: content}},
	}

	handle := svc.StartBackgroundSearch(context.Background(), outline, "deck-2", nil)
	<-handle.Done()

	images, ok := svc.Apply("deck-2", "slide-1")
	require.True(t, ok)
	assert.Len(t, images, 1)

	_, ok = svc.Apply("deck-2", "slide-1")
	assert.False(t, ok)
}

func TestPendingFor_UnknownDeckReturnsNil(t *testing.T) {
	svc := New(6)
	assert.Nil(t, svc.PendingFor("no-such-deck", "slide-1"))
}
