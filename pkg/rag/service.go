// Package rag implements RAGService: a compact, in-process knowledge base
// that returns per-slide design guidance (predicted component types,
// layout hints, and design rules) instead of a general-purpose retrieval
// framework. The knowledge base merges deck-specific style hints from the
// outline into its static design guidelines before returning context,
// following the same deep-merge-and-dedupe-lists approach production deck
// generators use to combine a base knowledge base with per-request
// overrides.
package rag

import (
	"context"
	"strings"

	"github.com/nextslide/deckengine/pkg/models"
)

// SlideDesignContext is what SlideGenerator's prompt builder consumes:
// predicted component types to bias generation toward, free-text layout
// hints, and the design/critical rules to fold into the prompt.
type SlideDesignContext struct {
	PredictedComponents []models.ComponentType
	LayoutHints         []string
	DesignGuidelines    []string
	CriticalRules       []string
}

// Service looks up design context for one slide. Implementations must
// return quickly: SlideGenerator treats a slow or failing call as
// non-blocking and falls back to FallbackContext rather than waiting.
type Service interface {
	GetContext(ctx context.Context, outline models.DeckOutline, slide models.SlideOutline) (SlideDesignContext, error)
}

// KnowledgeBaseService is the default Service: a compiled-in knowledge
// base keyed by slide signature, merged with the deck outline's style
// hints.
type KnowledgeBaseService struct{}

// New builds the default knowledge-base-backed RAG service.
func New() *KnowledgeBaseService {
	return &KnowledgeBaseService{}
}

// GetContext returns design context for slide, merging its signature's
// base guidance with style hints parsed out of outline.StyleHints.
func (s *KnowledgeBaseService) GetContext(ctx context.Context, outline models.DeckOutline, slide models.SlideOutline) (SlideDesignContext, error) {
	e, ok := baseKnowledgeBase[signatureFor(slide)]
	if !ok {
		e = baseKnowledgeBase[sigStandard]
	}

	return SlideDesignContext{
		PredictedComponents: append([]models.ComponentType(nil), e.PredictedComponents...),
		LayoutHints:         append([]string(nil), e.LayoutHints...),
		DesignGuidelines:    mergeUnique(e.DesignGuidelines, parseStyleHints(outline.StyleHints)),
		CriticalRules:       append([]string(nil), criticalRules...),
	}, nil
}

// FallbackContext is the static minimal context SlideGenerator uses when
// a RAGService call fails or times out — generation proceeds without
// design guidance rather than blocking the slide.
func FallbackContext() SlideDesignContext {
	e := baseKnowledgeBase[sigStandard]
	return SlideDesignContext{
		PredictedComponents: append([]models.ComponentType(nil), e.PredictedComponents...),
		LayoutHints:         nil,
		DesignGuidelines:    nil,
		CriticalRules:       append([]string(nil), criticalRules...),
	}
}

// parseStyleHints splits a deck outline's free-text style hints on commas,
// semicolons, and newlines into a trimmed list of non-empty hints.
func parseStyleHints(raw string) []string {
	if raw == "" {
		return nil
	}
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	hints := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			hints = append(hints, f)
		}
	}
	return hints
}

// mergeUnique combines a and b in order, dropping later duplicates while
// preserving first-seen order — the Go equivalent of the Python knowledge
// base merge's "combine lists and remove duplicates while preserving
// order" rule for overlapping list fields.
func mergeUnique(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	result := make([]string, 0, len(a)+len(b))
	for _, v := range a {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	for _, v := range b {
		if !seen[v] {
			seen[v] = true
			result = append(result, v)
		}
	}
	return result
}
