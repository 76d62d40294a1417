package llm

import "context"

// CompletionRequest is one prompt sent to the model.
type CompletionRequest struct {
	Prompt    string
	MaxTokens int
}

// Completer is the single LLM capability the pipeline depends on. The
// classifier and the field extractor receive an explicitly constructed
// handle; nothing in the pipeline reaches for ambient client state. Failures
// are returned as-is, with no retries at this layer; callers map failure to
// their own fallback behavior.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
