// Package voiceprint stores voice-DNA samples and runs deepfake scans on
// audio clips. Samples are opaque blobs keyed by id; scans send the clip to
// the generative model and degrade to an inconclusive verdict when the model
// is unavailable.
package voiceprint

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("voiceprint: sample not found")

// Sample is a stored voice-DNA blob.
type Sample struct {
	ID   string
	Blob []byte
	Mime string
}

// Store persists voice samples. Exact-key retrieval only.
type Store interface {
	Put(ctx context.Context, id string, blob []byte, mime string) error
	Get(ctx context.Context, id string) (blob []byte, mime string, err error)
}

// Verdict is the deepfake scan outcome.
type Verdict string

const (
	VerdictAuthentic Verdict = "authentic"
	VerdictSynthetic Verdict = "synthetic"
	VerdictUnsure    Verdict = "unsure"
)

// ScanResult is what a deepfake scan returns. Confidence is 0-100.
type ScanResult struct {
	Verdict     Verdict `json:"verdict"`
	Confidence  int     `json:"confidence"`
	Explanation string  `json:"explanation"`
	Source      string  `json:"source"` // "model" or "fallback"
}
