package postproc

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/gift"
	"github.com/disintegration/imaging"

	"github.com/jgreely/genaistuff/internal/domain"
	"github.com/jgreely/genaistuff/internal/ports"
)

// Pipeline applies client-side post-processing to generated images in a
// fixed order: crop, size, sharp, jpg, save. Provenance is embedded
// after the file lands on disk.
type Pipeline struct {
	writer ports.MetadataWriter
	logger *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetadataWriter sets the provenance writer used at save time.
func WithMetadataWriter(w ports.MetadataWriter) Option {
	return func(p *Pipeline) { p.writer = w }
}

// WithLogger sets the logger (discard by default).
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// New builds a Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ ports.PostProcessor = (*Pipeline)(nil)

// Process decodes data, applies the spec's operations in pipeline order,
// and writes the result to spec.SavePath. A provenance failure after a
// successful save is reported but leaves the saved file in place.
func (p *Pipeline) Process(data []byte, spec domain.PostProcessSpec) error {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return &domain.OpError{Op: "post.decode", Kind: domain.KindExecution, Err: err}
	}

	if !spec.Crop.Empty() {
		rect := image.Rect(spec.Crop.Left, spec.Crop.Top, spec.Crop.Right, spec.Crop.Bottom)
		p.logger.Debug("post.crop", "box", rect.String())
		img = imaging.Crop(img, rect)
	}

	if spec.SizePercent > 0 && spec.SizePercent < 100 {
		b := img.Bounds()
		w := b.Dx() * spec.SizePercent / 100
		h := b.Dy() * spec.SizePercent / 100
		p.logger.Debug("post.size", "percent", spec.SizePercent, "width", w, "height", h)
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	if spec.Sharp != nil {
		img = unsharp(img, spec.Sharp)
	}

	var buf bytes.Buffer
	if spec.JPEG != nil {
		q := spec.JPEG.EffectiveQuality()
		p.logger.Debug("post.jpg", "quality", q)
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q))
	} else {
		err = imaging.Encode(&buf, img, imaging.PNG)
	}
	if err != nil {
		return &domain.OpError{Op: "post.encode", Kind: domain.KindExecution, Err: err}
	}

	if spec.SavePath == "" {
		return nil
	}
	if err := atomicWrite(spec.SavePath, buf.Bytes()); err != nil {
		return &domain.OpError{Op: "post.save", Kind: domain.KindExecution, Path: spec.SavePath, Err: err}
	}
	p.logger.Debug("post.save", "path", spec.SavePath, "bytes", buf.Len())

	if p.writer != nil && (spec.Meta != "" || spec.Source != "") {
		if err := p.writer.WriteProvenance(spec.SavePath, spec.Meta, spec.Source); err != nil {
			// The pixels are already on disk; only the provenance is lost.
			return err
		}
	}
	return nil
}

// unsharp applies an unsharp mask given in the radius/percent/threshold
// convention, translated to gift's sigma/amount/threshold form.
func unsharp(img image.Image, s *domain.UnsharpSpec) image.Image {
	g := gift.New(gift.UnsharpMask(
		float32(s.Radius),
		float32(s.Percent)/100,
		float32(s.Threshold)/255,
	))
	dst := image.NewNRGBA(g.Bounds(img.Bounds()))
	g.Draw(dst, img)
	return dst
}

// atomicWrite lands content under a temporary name in the target
// directory and renames it into place.
func atomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
