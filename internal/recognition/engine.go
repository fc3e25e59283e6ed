package recognition

import (
	"context"
	"errors"
	"image"

	"github.com/anime-shed/doc-extractor-go/internal/profile"
)

var (
	// ErrUnavailable indicates the recognition engine could not be reached
	// or initialized.
	ErrUnavailable = errors.New("recognition engine unavailable")

	// ErrTimeout indicates the engine exceeded the caller-supplied deadline.
	ErrTimeout = errors.New("recognition timed out")
)

// Request carries the engine configuration for a single extraction call.
type Request struct {
	Languages        []string
	SegmentationMode profile.SegmentationMode
	EngineMode       profile.EngineMode
	Whitelist        string
}

// Token is one recognized word with its confidence score (0-100).
type Token struct {
	Text       string
	Confidence float64
}

// Result is the raw engine output: linearized text plus the per-token
// confidence list in reading order.
type Result struct {
	Text   string
	Tokens []Token
}

// Confidences returns the per-token confidence scores in order.
func (r Result) Confidences() []float64 {
	out := make([]float64, len(r.Tokens))
	for i, t := range r.Tokens {
		out[i] = t.Confidence
	}
	return out
}

// Engine is the call boundary to the external recognition engine. It
// performs no retries and no strategy logic; the orchestrator owns all
// control flow. Implementations must respect ctx's deadline and return
// ErrTimeout when it expires.
type Engine interface {
	Extract(ctx context.Context, img image.Image, req Request) (Result, error)
}
