// Package models holds the data types shared across the deck composition
// engine: outlines, themes, components, slides, decks, and generation events.
package models

import (
	"fmt"
	"time"
)

// DeckOutline is the immutable, user-provided structured plan for a deck.
type DeckOutline struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	StyleHints    string        `json:"styleHints,omitempty"`
	Slides        []SlideOutline `json:"slides"`
	UploadedMedia []MediaItem   `json:"uploadedMedia,omitempty"`
	Notes         string        `json:"notes,omitempty"`
}

// Validate checks the invariants required before orchestration may begin:
// non-empty title and at least one slide, each with a title and content.
func (o DeckOutline) Validate() error {
	if o.Title == "" {
		return errTitleRequired
	}
	if len(o.Slides) == 0 {
		return errAtLeastOneSlide
	}
	for i, s := range o.Slides {
		if s.Title == "" {
			return fieldError(i, "title")
		}
		if s.Content == "" {
			return fieldError(i, "content")
		}
	}
	return nil
}

// SlideOutline is a single slide's plan within a DeckOutline.
type SlideOutline struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Content       string         `json:"content"`
	LayoutHint    string         `json:"layoutHint,omitempty"`
	Comparison    bool           `json:"comparison,omitempty"`
	ExtractedData map[string]any `json:"extractedData,omitempty"`
	TaggedMedia   []MediaItem    `json:"taggedMedia,omitempty"`
}

// HasChartData reports whether this slide outline carries data suited to a
// chart component (a "series" or "values" key in ExtractedData).
func (s SlideOutline) HasChartData() bool {
	if s.ExtractedData == nil {
		return false
	}
	_, hasSeries := s.ExtractedData["series"]
	_, hasValues := s.ExtractedData["values"]
	return hasSeries || hasValues
}

// HasTabularData reports whether this slide outline carries data suited to a
// table component (a "rows" or "columns" key in ExtractedData).
func (s SlideOutline) HasTabularData() bool {
	if s.ExtractedData == nil {
		return false
	}
	_, hasRows := s.ExtractedData["rows"]
	_, hasColumns := s.ExtractedData["columns"]
	return hasRows || hasColumns
}

// MediaItem is a piece of user-uploaded media, either pending processing
// (base64 data URL) or already resolved to a durable URL.
type MediaItem struct {
	ID       string `json:"id"`
	DataURL  string `json:"dataUrl,omitempty"`
	URL      string `json:"url,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Error    string `json:"error,omitempty"`
	SlideID  string `json:"slideId,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

type outlineError struct {
	msg string
}

func (e *outlineError) Error() string { return e.msg }

var (
	errTitleRequired    = &outlineError{"outline title must not be empty"}
	errAtLeastOneSlide  = &outlineError{"outline must contain at least one slide"}
)

func fieldError(slideIndex int, field string) error {
	return &outlineError{msg: fmt.Sprintf("slide %d missing required field %s", slideIndex, field)}
}

// Timestamps is embedded by entities that track creation/update times.
type Timestamps struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
