package mandel

import (
	"errors"
	"image"
)

var (
	ErrInvalidBounds   = errors.New("invalid bounds")
	ErrInvalidTileSize = errors.New("invalid tile size")
	ErrInvalidParams   = errors.New("invalid params")
)

// Compositor receives finished tiles. DeliverTile is called once per tile,
// in any order, from the goroutine driving the render.
type Compositor interface {
	DeliverTile(pix []byte, originX, originY, width, height int)
}

// FrameObserver is optionally implemented by a Compositor that wants to
// know when a render pass starts and ends.
type FrameObserver interface {
	FrameStarted(f Frame)
	FrameFinished(f Frame, stats Stats, err error)
}

// ImgProvider returns a copy of the currently composed image.
type ImgProvider interface {
	Image() *image.RGBA
}
