// Package render is the escape-time kernel executed by pool workers.
package render

import (
	"context"
	"fmt"
	"math"
	"time"

	mandel "github.com/marben/mandelzoom"
)

// bailout is the squared escape radius (|z| > 4).
const bailout = 16

var ln2 = math.Log(2)

// RendererImpl renders tasks on the local CPU.
type RendererImpl struct {
	// OnTileRender, if set, is called before a tile is computed.
	OnTileRender func(tile mandel.Tile)

	// Throttle delays every tile. Useful to watch the fill order.
	Throttle time.Duration
}

var _ mandel.Renderer = RendererImpl{}

// RenderTile implements mandel.Renderer. It stops early with ctx's error
// if ctx is done between rows.
func (imp RendererImpl) RenderTile(ctx context.Context, t mandel.Task) (mandel.TaskResult, error) {
	if imp.OnTileRender != nil {
		imp.OnTileRender(t.Tile())
	}
	if t.TileWidth <= 0 || t.TileHeight <= 0 || t.MaxIterations <= 0 {
		return mandel.TaskResult{}, fmt.Errorf("render tile %s: bad task (max iterations %d)", t.Tile(), t.MaxIterations)
	}

	pix := make([]byte, 4*t.TileWidth*t.TileHeight)

	for y := 0; y < t.TileHeight; y++ {
		if err := ctx.Err(); err != nil {
			return mandel.TaskResult{}, fmt.Errorf("render tile %s: %w", t.Tile(), err)
		}

		py := float64(y + t.TileOriginY)
		cy := py*t.SurfaceInverseHeight*t.LengthIm + t.MinIm

		for x := 0; x < t.TileWidth; x++ {
			px := float64(x + t.TileOriginX)
			cx := px*t.SurfaceInverseWidth*t.LengthRe + t.MinRe

			n, escaped := Escape(cx, cy, t.MaxIterations)
			v := Intensity(n, escaped, t.MaxIterations)

			pi := 4 * (y*t.TileWidth + x)
			pix[pi+0] = v
			pix[pi+1] = v
			pix[pi+2] = v
			pix[pi+3] = 255
		}
	}

	if imp.Throttle > 0 {
		select {
		case <-time.After(imp.Throttle):
		case <-ctx.Done():
			return mandel.TaskResult{}, fmt.Errorf("render tile %s: %w", t.Tile(), ctx.Err())
		}
	}

	return mandel.TaskResult{
		Seq:         t.Seq,
		Pix:         pix,
		TileOriginX: t.TileOriginX,
		TileOriginY: t.TileOriginY,
		TileWidth:   t.TileWidth,
		TileHeight:  t.TileHeight,
	}, nil
}

// Escape iterates z = z² + c from z₀ = c until |z|² > 16 or maxIter steps.
// For escaping points it returns the smoothed iteration count; otherwise
// it returns maxIter and false.
func Escape(cx, cy float64, maxIter int) (n float64, escaped bool) {
	zx, zy := cx, cy
	zx2, zy2 := zx*zx, zy*zy
	d2 := zx2 + zy2

	i := 0
	for d2 <= bailout && i < maxIter {
		zy = 2*zx*zy + cy
		zx = zx2 - zy2 + cx
		zx2, zy2 = zx*zx, zy*zy
		d2 = zx2 + zy2
		i++
	}

	if i == maxIter {
		return float64(maxIter), false
	}
	// Smooth escape
	return 1 + float64(i) - math.Log(math.Log(d2)/ln2)/ln2, true
}

// Intensity maps an iteration count to a grey level. Points that never
// escape are black; smoothed counts can fall below zero and are clamped.
func Intensity(n float64, escaped bool, maxIter int) uint8 {
	if !escaped {
		return 0
	}
	v := math.RoundToEven(255 * n / float64(maxIter))
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}
