// Package llm abstracts the generative model used for message classification
// and deepfake scanning. Implementations must be safe for concurrent use.
package llm

import (
	"context"
	"errors"
)

// ErrNoContent is returned when the model responds without any usable text.
var ErrNoContent = errors.New("llm: model returned no content")

// Request is a single generation request. Media, when present, is attached
// inline next to the prompt (used for audio samples in deepfake scans).
type Request struct {
	Prompt   string
	Media    []byte
	MimeType string
}

// Client is the generative model boundary. Generate honors the context
// deadline; callers own timeout policy. There is no retry — a failed call
// falls through to the caller's offline path.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	// SourceName returns a short provider label for logging (e.g. "Gemini").
	SourceName() string
}
