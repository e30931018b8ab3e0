package mandel

import (
	"fmt"
	"image"
	"sort"
)

// Region within the Mandelbrot set, as requested by a caller.
// It is not aspect corrected; pass it through ComputeBounds first.
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// Classic regions / landmarks in the Mandelbrot set
var (
	// Overview – the whole set, the default starting view
	Overview = Region{
		Xmin: -2.25,
		Xmax: 0.75,
		Ymin: -1,
		Ymax: 1,
	}

	// Seahorse Valley – dense filaments and repeating “seahorse” curls
	SeahorseValley = Region{
		Xmin: -0.8,
		Xmax: -0.7,
		Ymin: 0.05,
		Ymax: 0.15,
	}

	// Elephant Valley – large bulb with trunk-like tendrils
	ElephantValley = Region{
		Xmin: -1.85,
		Xmax: -1.75,
		Ymin: -0.10,
		Ymax: -0.02,
	}

	// Spiral Minibrot – small Mandelbrot copy with tight spiral arms
	SpiralMinibrot = Region{
		Xmin: -0.7435,
		Xmax: -0.7420,
		Ymin: 0.1310,
		Ymax: 0.1325,
	}

	// Triple Spiral – threefold symmetric spiral structure
	TripleSpiral = Region{
		Xmin: -0.7480,
		Xmax: -0.7450,
		Ymin: 0.0950,
		Ymax: 0.0980,
	}

	// Valley of the Dragon – deep, highly detailed spiral filaments
	ValleyOfTheDragon = Region{
		Xmin: -0.7400,
		Xmax: -0.7350,
		Ymin: 0.1800,
		Ymax: 0.1850,
	}

	// Minibrot in a Mini-Spiral – self-similar Mandelbrot copy inside a spiral arm
	MinibrotInMiniSpiral = Region{
		Xmin: -1.7390,
		Xmax: -1.7375,
		Ymin: -0.0235,
		Ymax: -0.0220,
	}
)

var regions = map[string]Region{
	"overview":                Overview,
	"seahorse-valley":         SeahorseValley,
	"elephant-valley":         ElephantValley,
	"spiral-minibrot":         SpiralMinibrot,
	"triple-spiral":           TripleSpiral,
	"valley-of-the-dragon":    ValleyOfTheDragon,
	"minibrot-in-mini-spiral": MinibrotInMiniSpiral,
}

// LookupRegion returns the preset region registered under name.
func LookupRegion(name string) (Region, error) {
	r, ok := regions[name]
	if !ok {
		return Region{}, fmt.Errorf("unknown region %q (known: %v)", name, RegionNames())
	}
	return r, nil
}

// RegionNames lists preset names in sorted order.
func RegionNames() []string {
	names := make([]string, 0, len(regions))
	for n := range regions {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Tile is a rectangular piece of the render surface.
type Tile struct {
	X0, Y0 int // top-left pixel in global image
	W, H   int // tile width & height
}

// Rect returns the tile in global surface coordinates.
func (t Tile) Rect() image.Rectangle {
	return image.Rect(t.X0, t.Y0, t.X0+t.W, t.Y0+t.H)
}

func (t Tile) String() string {
	return t.Rect().String()
}

// Task is the message handed to a worker. The json names are the wire
// schema and must stay stable.
type Task struct {
	Seq int `json:"-"` // dispatch index within a batch

	SurfaceInverseWidth  float64 `json:"surfaceInverseWidth"`
	SurfaceInverseHeight float64 `json:"surfaceInverseHeight"`
	TileOriginX          int     `json:"tileOriginX"`
	TileOriginY          int     `json:"tileOriginY"`
	TileWidth            int     `json:"tileWidth"`
	TileHeight           int     `json:"tileHeight"`
	MaxIterations        int     `json:"maxIterations"`
	MinRe                float64 `json:"minRe"`
	MaxRe                float64 `json:"maxRe"`
	MinIm                float64 `json:"minIm"`
	MaxIm                float64 `json:"maxIm"`
	LengthRe             float64 `json:"lengthRe"`
	LengthIm             float64 `json:"lengthIm"`
}

// NewTask builds the worker message for one tile of a surfaceW × surfaceH render.
func NewTask(t Tile, b Bounds, surfaceW, surfaceH, maxIter int) Task {
	return Task{
		SurfaceInverseWidth:  1 / float64(surfaceW),
		SurfaceInverseHeight: 1 / float64(surfaceH),
		TileOriginX:          t.X0,
		TileOriginY:          t.Y0,
		TileWidth:            t.W,
		TileHeight:           t.H,
		MaxIterations:        maxIter,
		MinRe:                b.MinRe,
		MaxRe:                b.MaxRe,
		MinIm:                b.MinIm,
		MaxIm:                b.MaxIm,
		LengthRe:             b.LengthRe,
		LengthIm:             b.LengthIm,
	}
}

// NewTasks builds one task per tile, keeping the tile order as dispatch order.
func NewTasks(tiles []Tile, b Bounds, surfaceW, surfaceH, maxIter int) []Task {
	tasks := make([]Task, len(tiles))
	for i, t := range tiles {
		tasks[i] = NewTask(t, b, surfaceW, surfaceH, maxIter)
		tasks[i].Seq = i
	}
	return tasks
}

// Tile returns the tile the task covers.
func (t Task) Tile() Tile {
	return Tile{X0: t.TileOriginX, Y0: t.TileOriginY, W: t.TileWidth, H: t.TileHeight}
}

// TaskResult is the message a worker sends back: an RGBA buffer for one tile.
type TaskResult struct {
	Seq int `json:"-"`

	Pix         []byte `json:"pixelBuffer"` // row-major RGBA, 4 bytes per pixel
	TileOriginX int    `json:"tileOriginX"`
	TileOriginY int    `json:"tileOriginY"`
	TileWidth   int    `json:"tileWidth"`
	TileHeight  int    `json:"tileHeight"`
}

// Image wraps the result buffer without copying. The image is placed at
// the tile's global coordinates.
func (r TaskResult) Image() *image.RGBA {
	return &image.RGBA{
		Pix:    r.Pix,
		Stride: 4 * r.TileWidth,
		Rect:   image.Rect(r.TileOriginX, r.TileOriginY, r.TileOriginX+r.TileWidth, r.TileOriginY+r.TileHeight),
	}
}

// Params are the user tunable render parameters.
type Params struct {
	TileWidth     int `json:"tileWidth" yaml:"tile_width"`
	TileHeight    int `json:"tileHeight" yaml:"tile_height"`
	MaxIterations int `json:"maxIterations" yaml:"max_iterations"`
}

// Validate reports whether every parameter is at least 1.
func (p Params) Validate() error {
	if p.TileWidth < 1 || p.TileHeight < 1 {
		return fmt.Errorf("%w: tile size %dx%d", ErrInvalidParams, p.TileWidth, p.TileHeight)
	}
	if p.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations %d", ErrInvalidParams, p.MaxIterations)
	}
	return nil
}

// Selection is a dragged rectangle in surface pixels.
type Selection struct {
	StartX int `json:"startX"`
	StartY int `json:"startY"`
	EndX   int `json:"endX"`
	EndY   int `json:"endY"`
}

// Normalize orders the corners so Start is top-left and clamps both to a
// w × h surface.
func (s Selection) Normalize(w, h int) Selection {
	if s.EndX < s.StartX {
		s.StartX, s.EndX = s.EndX, s.StartX
	}
	if s.EndY < s.StartY {
		s.StartY, s.EndY = s.EndY, s.StartY
	}
	s.StartX, s.EndX = clamp(s.StartX, 0, w), clamp(s.EndX, 0, w)
	s.StartY, s.EndY = clamp(s.StartY, 0, h), clamp(s.EndY, 0, h)
	return s
}

// Empty reports a selection without positive area.
func (s Selection) Empty() bool {
	return s.EndX <= s.StartX || s.EndY <= s.StartY
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
