package repo

import "context"

// Completion is the input to the generation backend
type Completion struct {
	System      string
	User        string
	Temperature float32
}

// Generator is the text-generation backend
type Generator interface {
	// Generate returns the generated text. Implementations return
	// domain.ErrNoAnswer when the backend answered without usable text.
	Generate(ctx context.Context, req Completion) (string, error)

	// Model returns the model name used for cost lookups
	Model() string
}

// TokenCounter counts subword tokens the way the backend bills them
type TokenCounter interface {
	Count(text string) (int, error)
}
