package ports

import "github.com/jgreely/genaistuff/internal/domain"

// MetadataSource parses generation parameters out of a previously
// generated image (or a JSON side-car file). With verbose set, the whole
// metadata envelope is returned instead of just the generation params.
type MetadataSource interface {
	ReadParams(path string, verbose bool) (domain.ParameterSet, error)
}

// MetadataWriter embeds provenance into an already-saved image file:
// meta is the opaque generation-parameter text, source the originating
// filename (the standard document-name field). Either may be empty.
type MetadataWriter interface {
	WriteProvenance(path, meta, source string) error
}
