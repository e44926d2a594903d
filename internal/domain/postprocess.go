package domain

// UnsharpSpec holds unsharp-mask parameters in the radius/percent/
// threshold convention.
type UnsharpSpec struct {
	Radius    float64
	Percent   int
	Threshold int
}

// DefaultJPEGQuality is used when a requested quality is not a valid
// 1–99 integer.
const DefaultJPEGQuality = 85

// PostProcessSpec collects the client-side operations for one generated
// image. At most one operation per kind; application order is fixed by
// the pipeline (crop, size, sharp, jpg, save) regardless of how the spec
// was assembled. A spec is built fresh per image and consumed once.
type PostProcessSpec struct {
	// Meta is opaque provenance text (the generation parameters),
	// embedded at save time.
	Meta string
	// Source is the originating filename for re-gens, written as the
	// standard document-name provenance field at save time.
	Source string

	// Crop recovers the originally requested area after fix-resolution.
	// An empty box is a no-op.
	Crop CropBox
	// SizePercent scales both dimensions when below 100; 0 or >=100
	// leaves the image alone.
	SizePercent int
	// Sharp applies an unsharp mask when non-nil.
	Sharp *UnsharpSpec
	// JPEG re-encodes lossily in memory when non-nil, baking in all
	// prior operations before quality loss.
	JPEG *JPEGSpec
	// SavePath writes the result to disk when non-empty.
	SavePath string
}

// JPEGSpec requests lossy re-encoding. Quality outside 1–99 falls back
// to DefaultJPEGQuality.
type JPEGSpec struct {
	Quality int
}

// EffectiveQuality clamps the requested quality to the valid range.
func (j *JPEGSpec) EffectiveQuality() int {
	if j == nil || j.Quality < 1 || j.Quality > 99 {
		return DefaultJPEGQuality
	}
	return j.Quality
}
