// Package llm defines the port for text completion used by discussion turns.
package llm

import "context"

// Prompt is a single-shot completion request.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float64
}

// Completer returns the model's text for a prompt.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}
