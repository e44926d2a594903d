package usecase

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jgreely/genaistuff/internal/domain"
	"github.com/jgreely/genaistuff/internal/ports"
)

// Convert turns PNG files into JPEGs, carrying the embedded generation
// metadata across and optionally shrinking the image.
type Convert struct {
	meta   ports.MetadataSource
	post   ports.PostProcessor
	logger *slog.Logger
}

// NewConvert wires a Convert from its ports.
func NewConvert(meta ports.MetadataSource, post ports.PostProcessor, logger *slog.Logger) *Convert {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Convert{meta: meta, post: post, logger: logger}
}

// ConvertInput holds one invocation's options.
type ConvertInput struct {
	Files         []string
	ResizePercent int
	Quality       int
	DryRun        bool
	DryRunOut     io.Writer
}

// Run converts each file to a sibling .jpg. Unreadable files are logged
// and skipped; the rest of the batch proceeds.
func (c *Convert) Run(in ConvertInput) error {
	for _, file := range in.Files {
		out := jpegName(file)
		if in.DryRun {
			w := in.DryRunOut
			if w == nil {
				w = os.Stdout
			}
			if _, err := io.WriteString(w, file+" "+out+"\n"); err != nil {
				return err
			}
			continue
		}
		if err := c.one(file, out, in); err != nil {
			if domain.Fatal(err) {
				return err
			}
			c.logger.Error("jpg.convert", "file", file, "error", err)
			continue
		}
		c.logger.Info("jpg.saved", "file", out)
	}
	return nil
}

func (c *Convert) one(file, out string, in ConvertInput) error {
	// full envelope, so a re-gen from the JPEG sees everything
	params, err := c.meta.ReadParams(file, true)
	var meta string
	if err == nil {
		if b, jerr := json.Marshal(params); jerr == nil {
			meta = string(b)
		}
	} else {
		c.logger.Warn("jpg.meta", "file", file, "error", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return &domain.OpError{Op: "jpg.read", Kind: domain.KindExecution, Path: file, Err: err}
	}

	spec := domain.PostProcessSpec{
		Meta:     meta,
		JPEG:     &domain.JPEGSpec{Quality: in.Quality},
		SavePath: out,
	}
	if in.ResizePercent > 0 && in.ResizePercent < 100 {
		spec.SizePercent = in.ResizePercent
	}
	return c.post.Process(data, spec)
}

func jpegName(file string) string {
	return strings.TrimSuffix(file, filepath.Ext(file)) + ".jpg"
}
