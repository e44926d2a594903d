package imagemeta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/barasher/go-exiftool"

	"github.com/jgreely/genaistuff/internal/domain"
	"github.com/jgreely/genaistuff/internal/ports"
)

// envelopeKey wraps the generation parameters inside the metadata the
// server writes into its images. A sibling sui_extra_data block carries
// non-parameter context and is only surfaced in verbose mode.
const envelopeKey = "sui_image_params"

// extractor is the slice of go-exiftool the Tool needs; tests substitute
// a fake so they never depend on the exiftool binary.
type extractor interface {
	ExtractMetadata(files ...string) []exiftool.FileMetadata
	WriteMetadata(fms []exiftool.FileMetadata)
}

// Tool reads and writes image provenance through a long-running exiftool
// process. Close releases the process.
type Tool struct {
	et    extractor
	close func() error
}

var (
	_ ports.MetadataSource = (*Tool)(nil)
	_ ports.MetadataWriter = (*Tool)(nil)
)

// NewTool starts an exiftool subprocess.
func NewTool() (*Tool, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, &domain.OpError{Op: "meta.start", Kind: domain.KindExecution, Err: err}
	}
	return &Tool{et: et, close: et.Close}, nil
}

// Close shuts down the exiftool subprocess.
func (t *Tool) Close() error {
	if t.close == nil {
		return nil
	}
	return t.close()
}

// ReadParams loads generation parameters from a JSON side-car file or
// from the metadata embedded in a PNG or JPEG image. For images the
// envelope is unwrapped to the parameter block unless verbose is set.
func (t *Tool) ReadParams(path string, verbose bool) (domain.ParameterSet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return t.readSidecar(path)
	case ".png":
		return t.readImage(path, "Parameters", verbose)
	case ".jpg", ".jpeg":
		return t.readImage(path, "UserComment", verbose)
	default:
		return nil, &domain.OpError{
			Op:   "meta.read",
			Kind: domain.KindMetadata,
			Path: path,
			Err:  fmt.Errorf("unsupported file type %q", filepath.Ext(path)),
		}
	}
}

func (t *Tool) readSidecar(path string) (domain.ParameterSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.OpError{Op: "meta.read", Kind: domain.KindMetadata, Path: path, Err: err}
	}
	var params domain.ParameterSet
	if err := json.Unmarshal(data, &params); err != nil {
		return nil, &domain.OpError{Op: "meta.read", Kind: domain.KindMetadata, Path: path, Err: err}
	}
	params.DecodeWire()
	return params, nil
}

func (t *Tool) readImage(path, field string, verbose bool) (domain.ParameterSet, error) {
	fms := t.et.ExtractMetadata(path)
	if len(fms) == 0 {
		return nil, &domain.OpError{
			Op:   "meta.read",
			Kind: domain.KindMetadata,
			Path: path,
			Err:  fmt.Errorf("no metadata extracted"),
		}
	}
	fm := fms[0]
	if fm.Err != nil {
		return nil, &domain.OpError{Op: "meta.read", Kind: domain.KindMetadata, Path: path, Err: fm.Err}
	}

	raw, err := fm.GetString(field)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "meta.read",
			Kind: domain.KindMetadata,
			Path: path,
			Err:  fmt.Errorf("no %s field: %w", field, err),
		}
	}

	var envelope domain.ParameterSet
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, &domain.OpError{Op: "meta.read", Kind: domain.KindMetadata, Path: path, Err: err}
	}
	if verbose {
		return envelope, nil
	}
	inner, ok := envelope[envelopeKey].(map[string]any)
	if !ok {
		return nil, &domain.OpError{
			Op:   "meta.read",
			Kind: domain.KindMetadata,
			Path: path,
			Err:  fmt.Errorf("no %s block in metadata", envelopeKey),
		}
	}
	params := domain.ParameterSet(inner)
	params.DecodeWire()
	return params, nil
}

// WriteProvenance embeds the generation-parameter text and the source
// filename into an already-saved image. PNG files carry the text in the
// Parameters chunk, JPEG files in the EXIF user comment; both record the
// source in the EXIF document name (exiftool puts it in the PNG eXIf
// chunk).
func (t *Tool) WriteProvenance(path, meta, source string) error {
	fm := exiftool.FileMetadata{File: path, Fields: map[string]any{}}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		if meta != "" {
			fm.SetString("PNG:Parameters", meta)
		}
		if source != "" {
			fm.SetString("EXIF:DocumentName", source)
		}
	case ".jpg", ".jpeg":
		if meta != "" {
			fm.SetString("EXIF:UserComment", meta)
		}
		if source != "" {
			fm.SetString("EXIF:DocumentName", source)
		}
	default:
		return &domain.OpError{
			Op:   "meta.write",
			Kind: domain.KindMetadata,
			Path: path,
			Err:  fmt.Errorf("unsupported file type %q", filepath.Ext(path)),
		}
	}
	if len(fm.Fields) == 0 {
		return nil
	}

	fms := []exiftool.FileMetadata{fm}
	t.et.WriteMetadata(fms)
	if fms[0].Err != nil {
		return &domain.OpError{Op: "meta.write", Kind: domain.KindMetadata, Path: path, Err: fms[0].Err}
	}
	return nil
}
