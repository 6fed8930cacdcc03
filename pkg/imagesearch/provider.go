// Package imagesearch derives a small topic set from a deck outline,
// queries an image Provider per topic in the background, and assigns
// per-slide candidate image lists keyed by best-matching topic.
package imagesearch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/nextslide/deckengine/pkg/errs"
	"github.com/nextslide/deckengine/pkg/models"
)

// Provider is one image search backend. A Service may hold several; for
// each topic it uses the first provider's non-empty result and does not
// merge results across providers.
type Provider interface {
	Search(ctx context.Context, topic string, perPage int) ([]models.Image, error)
}

// StubProvider returns deterministic placeholder images without making a
// network call, for local development and tests where no real image
// provider is configured.
type StubProvider struct{}

// NewStubProvider builds a StubProvider.
func NewStubProvider() *StubProvider { return &StubProvider{} }

// Search returns perPage deterministic placeholder images for topic.
func (s *StubProvider) Search(ctx context.Context, topic string, perPage int) ([]models.Image, error) {
	if perPage <= 0 {
		perPage = 1
	}
	images := make([]models.Image, 0, perPage)
	for i := 0; i < perPage; i++ {
		images = append(images, models.Image{
			URL:    fmt.Sprintf("https://placehold.co/1600x900?text=%s+%d", topic, i+1),
			Alt:    topic,
			Source: "stub",
			Topic:  topic,
		})
	}
	return images, nil
}

// UnsplashLikeProvider queries a stock-photo-style HTTP search endpoint
// returning a "photos[].src.large" JSON shape, the response contract
// shared by several stock photo APIs (Pexels among them) and the one the
// background search context builder expected when formatting results.
type UnsplashLikeProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewUnsplashLikeProvider builds an HTTP-backed Provider against baseURL,
// authenticating with apiKey.
func NewUnsplashLikeProvider(baseURL, apiKey string, timeout time.Duration) *UnsplashLikeProvider {
	return &UnsplashLikeProvider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type searchResponse struct {
	Photos []struct {
		Alt string `json:"alt"`
		Src struct {
			Large string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

// Search queries the configured endpoint for topic and maps its response
// into Image candidates, skipping any photo missing a "large" source URL.
func (p *UnsplashLikeProvider) Search(ctx context.Context, topic string, perPage int) ([]models.Image, error) {
	endpoint := fmt.Sprintf("%s/v1/search?query=%s&per_page=%d", p.baseURL, url.QueryEscape(topic), perPage)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.New(errs.KindRAGContext, fmt.Errorf("build image search request: %w", err))
	}
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, errs.New(errs.KindAIOverloaded, fmt.Errorf("image search request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errs.New(errs.KindAIInvalidResponse, fmt.Errorf("image search returned status %d", resp.StatusCode))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errs.New(errs.KindAIInvalidResponse, fmt.Errorf("decode image search response: %w", err))
	}

	images := make([]models.Image, 0, len(decoded.Photos))
	for _, photo := range decoded.Photos {
		if photo.Src.Large == "" {
			continue
		}
		images = append(images, models.Image{
			URL:    photo.Src.Large,
			Alt:    photo.Alt,
			Source: "http",
			Topic:  topic,
		})
	}
	return images, nil
}
