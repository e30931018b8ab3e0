package mandel

import (
	"fmt"
	"math"
)

// Bounds is the aspect-corrected window of the complex plane being displayed.
// It is a value; zooming produces a new one.
type Bounds struct {
	MinRe, MaxRe       float64
	MinIm, MaxIm       float64
	CenterRe, CenterIm float64
	LengthRe, LengthIm float64
}

// ComputeBounds centers a window on r and grows its shorter axis so that
// LengthRe/LengthIm equals aspect. The window never shrinks, so r stays
// fully visible.
func ComputeBounds(r Region, aspect float64) (Bounds, error) {
	if !finite(r.Xmin, r.Xmax, r.Ymin, r.Ymax, aspect) {
		return Bounds{}, fmt.Errorf("%w: non-finite input %+v aspect %v", ErrInvalidBounds, r, aspect)
	}
	if r.Xmax <= r.Xmin || r.Ymax <= r.Ymin || aspect <= 0 {
		return Bounds{}, fmt.Errorf("%w: degenerate region %+v aspect %v", ErrInvalidBounds, r, aspect)
	}

	centerRe := (r.Xmin + r.Xmax) / 2
	centerIm := (r.Ymin + r.Ymax) / 2

	lengthRe := r.Xmax - r.Xmin
	lengthIm := r.Ymax - r.Ymin

	if lengthRe/lengthIm < aspect {
		lengthRe = lengthIm * aspect
	} else {
		lengthIm = lengthRe / aspect
	}

	halfRe := lengthRe / 2
	halfIm := lengthIm / 2

	return Bounds{
		MinRe:    centerRe - halfRe,
		MaxRe:    centerRe + halfRe,
		MinIm:    centerIm - halfIm,
		MaxIm:    centerIm + halfIm,
		CenterRe: centerRe,
		CenterIm: centerIm,
		LengthRe: lengthRe,
		LengthIm: lengthIm,
	}, nil
}

// Zoom maps a pixel selection on a w × h surface showing b to new bounds.
// Interpolation uses b's extents, so successive zooms compose relative to
// the window currently on screen.
func (b Bounds) Zoom(sel Selection, w, h int) (Bounds, error) {
	if w <= 0 || h <= 0 {
		return Bounds{}, fmt.Errorf("%w: surface %dx%d", ErrInvalidBounds, w, h)
	}
	fw, fh := float64(w), float64(h)

	r := Region{
		Xmin: b.MinRe + b.LengthRe*float64(sel.StartX)/fw,
		Xmax: b.MaxRe - b.LengthRe*(fw-float64(sel.EndX))/fw,
		Ymin: b.MinIm + b.LengthIm*float64(sel.StartY)/fh,
		Ymax: b.MaxIm - b.LengthIm*(fh-float64(sel.EndY))/fh,
	}
	return ComputeBounds(r, fw/fh)
}

// Region returns the rectangle b covers.
func (b Bounds) Region() Region {
	return Region{Xmin: b.MinRe, Xmax: b.MaxRe, Ymin: b.MinIm, Ymax: b.MaxIm}
}

// PixelToComplex maps a surface point to the complex plane, using the
// same mapping as the compute kernel.
func (b Bounds) PixelToComplex(x, y float64, w, h int) (re, im float64) {
	re = x/float64(w)*b.LengthRe + b.MinRe
	im = y/float64(h)*b.LengthIm + b.MinIm
	return re, im
}

// Contains reports whether r lies inside b, allowing for rounding.
func (b Bounds) Contains(r Region) bool {
	eps := 1e-12 * math.Max(b.LengthRe, b.LengthIm)
	return b.MinRe <= r.Xmin+eps && r.Xmax <= b.MaxRe+eps &&
		b.MinIm <= r.Ymin+eps && r.Ymax <= b.MaxIm+eps
}

// Aspect is LengthRe / LengthIm.
func (b Bounds) Aspect() float64 {
	return b.LengthRe / b.LengthIm
}

func (b Bounds) String() string {
	return fmt.Sprintf("re [%g, %g] im [%g, %g]", b.MinRe, b.MaxRe, b.MinIm, b.MaxIm)
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
