package llm

import "context"

// Provider produces a completion for an already-assembled prompt. Prompt
// assembly (retrieved context, history) happens upstream so providers stay
// interchangeable.
type Provider interface {
	Complete(ctx context.Context, systemInstruction string, prompt string) (string, error)
}
