package ports

import (
	"context"

	"github.com/jgreely/genaistuff/internal/domain"
)

// ModelKind selects a model catalog subtype on the server.
type ModelKind string

const (
	KindBase ModelKind = "Stable-Diffusion"
	KindLoRA ModelKind = "LoRA"
	KindVAE  ModelKind = "VAE"
)

// Catalog lists server-side model and LUT names. Entries are fetched per
// run and never cached across invocations.
type Catalog interface {
	ListModels(ctx context.Context, kind ModelKind) ([]domain.CatalogEntry, error)
	ListLUTs(ctx context.Context) ([]string, error)
}
