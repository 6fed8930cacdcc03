package pauseresume

import "errors"

var (
	// ErrNoSnapshot indicates no snapshot exists for a generationId.
	ErrNoSnapshot = errors.New("no snapshot for generation")

	// ErrNotPaused indicates a snapshot exists but its runState is not
	// paused, so it is not resume-eligible.
	ErrNotPaused = errors.New("generation is not paused")
)
