package ports

import "github.com/jgreely/genaistuff/internal/domain"

// PostProcessor applies one PostProcessSpec to raw image bytes,
// writing the result to spec.SavePath when set.
type PostProcessor interface {
	Process(data []byte, spec domain.PostProcessSpec) error
}
