package models

// SlideStatus is the lifecycle state of a Slide.
type SlideStatus string

// Slide statuses.
const (
	SlideStatusPending    SlideStatus = "pending"
	SlideStatusGenerating SlideStatus = "generating"
	SlideStatusCompleted  SlideStatus = "completed"
	SlideStatusFailed     SlideStatus = "failed"
	SlideStatusSkipped    SlideStatus = "skipped"
)

// Slide is a single canvas-sized page containing typed, validated
// components.
type Slide struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Components    []Component    `json:"components"`
	Status        SlideStatus    `json:"status"`
	ExtractedData map[string]any `json:"extractedData,omitempty"`
	ThumbnailSVG  string         `json:"thumbnailSvg,omitempty"`
}

// SlideContext is everything SlideGenerator needs to produce one slide:
// the deck-wide theme/palette, this slide's outline and position, and any
// media already available for it.
type SlideContext struct {
	Outline          SlideOutline
	Index            int
	TotalSlides      int
	Theme            ThemeSpec
	Palette          Palette
	StyleManifesto   string
	AvailableImages  []Image
	TaggedMedia      []MediaItem
	HasChartData     bool
	HasTabularData   bool
	DeckID           string
}

// DeckStatusState is the coarse phase the deck's status reflects to clients.
type DeckStatusState string

// Deck status states.
const (
	DeckStatePending            DeckStatusState = "pending"
	DeckStateGenerating         DeckStatusState = "generating"
	DeckStateComplete           DeckStatusState = "complete"
	DeckStateCompleteWithErrors DeckStatusState = "complete_with_errors"
	DeckStateFailed             DeckStatusState = "failed"
	DeckStatePaused             DeckStatusState = "paused"
)

// DeckStatus is the live progress summary attached to a Deck.
type DeckStatus struct {
	State        DeckStatusState `json:"state"`
	CurrentSlide int             `json:"currentSlide"`
	TotalSlides  int             `json:"totalSlides"`
	Message      string          `json:"message,omitempty"`
	Progress     int             `json:"progress"`
}

// Deck is the top-level persisted entity: an outline's realized, ordered
// slides plus deck-wide theme and status.
type Deck struct {
	UUID    string      `json:"uuid"`
	Name    string      `json:"name"`
	Slides  []Slide     `json:"slides"`
	Size    Canvas      `json:"size"`
	Status  DeckStatus  `json:"status"`
	Outline DeckOutline `json:"outline"`
	Theme   *ThemeSpec  `json:"theme,omitempty"`
	Notes   string      `json:"notes,omitempty"`
	Version int         `json:"version"`
	Timestamps
}

// NewDeck creates a pending Deck from an accepted outline, one pending slide
// per outline slide, in outline order.
func NewDeck(uuid string, outline DeckOutline) *Deck {
	slides := make([]Slide, len(outline.Slides))
	for i, so := range outline.Slides {
		slides[i] = Slide{ID: so.ID, Title: so.Title, Status: SlideStatusPending}
	}
	return &Deck{
		UUID:    uuid,
		Name:    outline.Title,
		Slides:  slides,
		Size:    DefaultCanvas,
		Outline: outline,
		Status: DeckStatus{
			State:       DeckStatePending,
			TotalSlides: len(slides),
		},
	}
}
