// Package errs defines the flat error-kind taxonomy shared across the deck
// composition engine. Every package that talks to an external collaborator
// (AI provider, storage, database) wraps its own sentinel errors into a Kind
// at the boundary so Retrier and the orchestrator can classify failures
// without importing package-specific error types.
package errs

import (
	"errors"
	"fmt"
)

// Kind enumerates the error taxonomy shared across deck generation. It
// intentionally stays a flat string enum rather than a type hierarchy.
type Kind string

// Error kinds.
const (
	KindAITimeout           Kind = "ai_timeout"
	KindAIRateLimit         Kind = "ai_rate_limit"
	KindAIOverloaded        Kind = "ai_overloaded"
	KindAIInvalidResponse   Kind = "ai_invalid_response"
	KindValidationComponent Kind = "validation_component"
	KindValidationSchema    Kind = "validation_schema"
	KindMediaFormat         Kind = "media_format"
	KindMediaSize           Kind = "media_size"
	KindMediaUpload         Kind = "media_upload"
	KindRAGContext          Kind = "rag_context"
	KindRAGKnowledgeBase    Kind = "rag_kb"
	KindPersistenceSave     Kind = "persistence_save"
	KindPersistenceLoad     Kind = "persistence_load"
	KindOrchestrationSlide  Kind = "orchestration_slide"
	KindOrchestrationDeck   Kind = "orchestration_deck"
	KindConfigMissing       Kind = "configuration_missing"
	KindConfigInvalid       Kind = "configuration_invalid"
)

// Disposition is how the Retrier should treat an error of this Kind.
type Disposition int

const (
	// Retryable errors are retried by the Retrier under its backoff policy.
	Retryable Disposition = iota
	// Skippable errors, once retries are exhausted, should be surfaced as a
	// skip (e.g. slide_skipped) rather than a hard failure.
	Skippable
	// Fatal errors are re-raised immediately without retry.
	Fatal
)

// DefaultDisposition returns the disposition assigned to each Kind by
// default. Callers may override per call site where policy allows it (e.g.
// treating a validation failure as skippable rather than fatal).
func (k Kind) DefaultDisposition() Disposition {
	switch k {
	case KindAITimeout, KindAIRateLimit, KindAIOverloaded, KindPersistenceSave, KindPersistenceLoad:
		return Retryable
	case KindAIInvalidResponse, KindValidationComponent:
		return Skippable
	default:
		return Fatal
	}
}

// DeckError wraps an underlying error with a classification Kind and
// optional structured context (deck id, slide index, etc.) for logging.
type DeckError struct {
	Kind    Kind
	Cause   error
	Context map[string]any
}

// New creates a DeckError of the given kind wrapping cause.
func New(kind Kind, cause error) *DeckError {
	return &DeckError{Kind: kind, Cause: cause}
}

// Newf creates a DeckError of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *DeckError {
	return &DeckError{Kind: kind, Cause: fmt.Errorf(format, args...)}
}

// WithContext returns a copy of e with the given context key/value attached.
func (e *DeckError) WithContext(key string, value any) *DeckError {
	cp := *e
	cp.Context = make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		cp.Context[k] = v
	}
	cp.Context[key] = value
	return &cp
}

func (e *DeckError) Error() string {
	if e.Cause == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As chains.
func (e *DeckError) Unwrap() error {
	return e.Cause
}

// As extracts the Kind of err if it is (or wraps) a *DeckError.
func As(err error) (Kind, bool) {
	var de *DeckError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// Is reports whether err is a DeckError of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := As(err)
	return ok && k == kind
}
