package ports

import (
	"context"

	"github.com/jgreely/genaistuff/internal/domain"
)

// Generator is the remote image-generation service. Generate blocks for
// the duration of the render and returns the raw image bytes, already
// fetched or decoded from the inline response.
type Generator interface {
	NewSession(ctx context.Context) error
	Generate(ctx context.Context, params domain.ParameterSet) ([]byte, error)
}
