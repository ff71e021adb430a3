package llm

import "context"

// Client defines the interface for the external generative completion
// service. Failures surface as errors and are handled locally by callers;
// they must never terminate a live session.
type Client interface {
	// Generate performs a single completion call for the given prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}
