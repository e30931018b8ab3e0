package mandel

import (
	"fmt"
	"time"
)

// Partition splits a w × h surface into tiles of size tileW × tileH.
// Tiles are returned row by row, left to right; this is the dispatch order.
// Tiles at the right and bottom edges are smaller if the surface is not divisible.
func Partition(w, h, tileW, tileH int) ([]Tile, error) {
	if tileW <= 0 || tileH <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidTileSize, tileW, tileH)
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: surface %dx%d", ErrInvalidTileSize, w, h)
	}

	cols := (w + tileW - 1) / tileW
	rows := (h + tileH - 1) / tileH
	tiles := make([]Tile, 0, cols*rows)

	for oy := 0; oy < h; oy += tileH {
		th := min(tileH, h-oy)

		for ox := 0; ox < w; ox += tileW {
			tw := min(tileW, w-ox)

			tiles = append(tiles, Tile{X0: ox, Y0: oy, W: tw, H: th})
		}
	}

	return tiles, nil
}

// Frame describes one render pass.
type Frame struct {
	Seq           uint64
	Width, Height int
	Bounds        Bounds
	Params        Params
	Tiles         int
}

// Stats summarise a finished render pass.
type Stats struct {
	Tiles   int
	Workers int
	Elapsed time.Duration
}

// RenderTime formats Elapsed the way the parameter panel shows it.
func (s Stats) RenderTime() string {
	return fmt.Sprintf("%.2fms", float64(s.Elapsed.Microseconds())/1000)
}
