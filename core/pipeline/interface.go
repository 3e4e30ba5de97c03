// Package pipeline holds the document processing pipeline: semantic chunking
// of ordered regions and the injectable capability functions (embedding,
// text generation, structured vision extraction) the rest of the system is
// built on.
package pipeline

import (
	"context"

	"github.com/evidra/evidra/model"
)

// EmbedFunc is a capability that maps text to a fixed-dimension vector.
// Implementations must be deterministic for identical input.
type EmbedFunc func(text string) ([]float32, error)

// Message is one conversation turn passed to a generation capability.
type Message struct {
	Role    string
	Content string
}

// GenerateFunc is a capability that maps a system instruction plus
// conversation messages to free text.
type GenerateFunc func(ctx context.Context, system string, messages []Message) (string, error)

// ExtractFunc is a capability that extracts structured data from a cropped
// region image. Implementations degrade to an error-tagged Extraction with
// empty content instead of failing the batch on one bad region.
type ExtractFunc func(ctx context.Context, image []byte, region model.Region) (model.Extraction, error)
