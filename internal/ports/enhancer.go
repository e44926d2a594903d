package ports

import "context"

// Enhancer rewrites a raw prompt into an expanded one using a local
// inference server.
type Enhancer interface {
	Enhance(ctx context.Context, prompt string) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}
