package ai

import "context"

// Prompt is one request to the generative text service.
type Prompt struct {
	System string
	User   string
	// JSON asks the provider to constrain the reply to a single JSON object.
	JSON bool
}

// Client is the generative text collaborator.
type Client interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}
