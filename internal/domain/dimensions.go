package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Dimensions is a resolved width/height pair. After ResolveDimensions
// both sides are non-negative multiples of the requested rounding.
type Dimensions struct {
	Width  int
	Height int
}

// CropBox is a (left, top, right, bottom) pixel box. The zero value is
// empty and must be treated as a no-op, never applied.
type CropBox struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Empty reports whether the box selects nothing.
func (c CropBox) Empty() bool {
	return c == CropBox{}
}

// Scale multiplies every coordinate by f, truncating to integers. Used
// when a refinement stage upscales the canvas after generation.
func (c CropBox) Scale(f float64) CropBox {
	return CropBox{
		Left:   int(f * float64(c.Left)),
		Top:    int(f * float64(c.Top)),
		Right:  int(f * float64(c.Right)),
		Bottom: int(f * float64(c.Bottom)),
	}
}

// ResolveDimensions converts an aspect-ratio spec and a target side
// length into the largest width/height whose product stays within
// side², with both sides snapped down to multiples of rounding.
//
// The spec is either an explicit "WxH" pixel pair (returned unchanged,
// no rounding or budget applied), a "W:H" float ratio, or empty for 1:1.
func ResolveDimensions(ratioSpec string, side, rounding int) (Dimensions, error) {
	if strings.Contains(ratioSpec, "x") {
		return parseExplicit(ratioSpec)
	}

	aw, ah := 1.0, 1.0
	if strings.Contains(ratioSpec, ":") {
		parts := strings.SplitN(ratioSpec, ":", 2)
		var err error
		if aw, err = strconv.ParseFloat(parts[0], 64); err != nil {
			return Dimensions{}, &OpError{
				Op:   "dimensions.resolve",
				Kind: KindInvalidConfig,
				Err:  fmt.Errorf("aspect %q: %w", ratioSpec, err),
			}
		}
		if ah, err = strconv.ParseFloat(parts[1], 64); err != nil {
			return Dimensions{}, &OpError{
				Op:   "dimensions.resolve",
				Kind: KindInvalidConfig,
				Err:  fmt.Errorf("aspect %q: %w", ratioSpec, err),
			}
		}
	}
	if aw <= 0 || ah <= 0 || side <= 0 || rounding <= 0 {
		return Dimensions{}, &OpError{
			Op:   "dimensions.resolve",
			Kind: KindInvalidConfig,
			Err:  fmt.Errorf("aspect %q, side %d, rounding %d: all terms must be positive", ratioSpec, side, rounding),
		}
	}

	scale := math.Sqrt(float64(side) * float64(side) / (aw * ah))
	idealW := aw * scale
	idealH := ah * scale

	// Snap down to the nearest multiple.
	width := int(idealW) - int(idealW)%rounding
	height := int(idealH) - int(idealH)%rounding

	// The snapped sides can still overshoot the budget for skewed
	// ratios; shrink the larger side until the product fits. Each pass
	// strictly reduces the product, so this ends within
	// max(width,height)/rounding steps.
	budget := side * side
	for width*height > budget && width > 0 && height > 0 {
		if width >= height {
			width -= rounding
		} else {
			height -= rounding
		}
	}

	if width <= 0 || height <= 0 {
		return Dimensions{}, &OpError{
			Op:   "dimensions.resolve",
			Kind: KindBudget,
			Err:  fmt.Errorf("aspect %q at side %d rounding %d leaves a zero-area canvas", ratioSpec, side, rounding),
		}
	}
	return Dimensions{Width: width, Height: height}, nil
}

func parseExplicit(spec string) (Dimensions, error) {
	parts := strings.SplitN(spec, "x", 2)
	w, werr := strconv.Atoi(strings.TrimSpace(parts[0]))
	h, herr := strconv.Atoi(strings.TrimSpace(parts[1]))
	if werr != nil || herr != nil || w <= 0 || h <= 0 {
		return Dimensions{}, &OpError{
			Op:   "dimensions.resolve",
			Kind: KindInvalidConfig,
			Err:  fmt.Errorf("explicit resolution %q is not WxH", spec),
		}
	}
	return Dimensions{Width: w, Height: h}, nil
}

// fixupMultiple is imposed by the supported model architectures: the
// fix-resolution pass always rounds up to /64 regardless of the rounding
// used for aspect snapping.
const fixupMultiple = 64

// CompensateResolution rounds width/height up to the next multiple of 64
// and returns the centered crop box that recovers the originally
// requested area after generation. When a refinement stage multiplies the
// canvas, upscale (>0) scales the box coordinates, truncating.
//
// Odd padding splits asymmetrically (floor on the leading edge); that
// truncation is intentional and must not be "fixed", since edge-artifact
// compensation on the server side depends on it.
func CompensateResolution(width, height int, upscale float64) (int, int, CropBox) {
	newW := roundUp(width, fixupMultiple)
	newH := roundUp(height, fixupMultiple)
	if newW == width && newH == height {
		return width, height, CropBox{}
	}

	deltaW := (newW - width) / 2
	deltaH := (newH - height) / 2
	crop := CropBox{
		Left:   deltaW,
		Top:    deltaH,
		Right:  width + deltaW,
		Bottom: height + deltaH,
	}
	if upscale > 0 {
		crop = crop.Scale(upscale)
	}
	return newW, newH, crop
}

func roundUp(v, multiple int) int {
	if v%multiple == 0 {
		return v
	}
	return (v/multiple + 1) * multiple
}

// ParseSideLength parses the "pixels/divisor" form of the sidelength
// flag, defaulting the divisor to 64.
func ParseSideLength(spec string) (side, rounding int, err error) {
	rounding = fixupMultiple
	s := spec
	if strings.Contains(spec, "/") {
		parts := strings.SplitN(spec, "/", 2)
		s = parts[0]
		rounding, err = strconv.Atoi(parts[1])
		if err != nil || rounding <= 0 {
			return 0, 0, &OpError{
				Op:   "dimensions.sidelength",
				Kind: KindInvalidConfig,
				Err:  fmt.Errorf("divisor in %q must be a positive integer", spec),
			}
		}
	}
	side, err = strconv.Atoi(s)
	if err != nil || side <= 0 {
		return 0, 0, &OpError{
			Op:   "dimensions.sidelength",
			Kind: KindInvalidConfig,
			Err:  fmt.Errorf("side length in %q must be a positive integer", spec),
		}
	}
	return side, rounding, nil
}
