package llm

import "context"

// Model abstracts a chat-based generative model.
type Model interface {
	Generate(ctx context.Context, request *GenerateRequest) (*GenerateResponse, error)
}
