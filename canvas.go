package mandel

import (
	"image"
	"image/draw"
	"sync"
)

// Canvas is a Compositor that blits tiles into one full-surface image.
// It is safe to read the image from other goroutines while tiles arrive.
type Canvas struct {
	m   sync.Mutex
	img *image.RGBA

	// OnTile, if set, is called after each blit with the tile rectangle.
	OnTile func(r image.Rectangle)
}

// NewCanvas returns an opaque black w × h canvas.
func NewCanvas(w, h int) *Canvas {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.Black, image.Point{}, draw.Src)
	return &Canvas{img: img}
}

// DeliverTile implements Compositor.
func (c *Canvas) DeliverTile(pix []byte, originX, originY, width, height int) {
	tile := TaskResult{Pix: pix, TileOriginX: originX, TileOriginY: originY, TileWidth: width, TileHeight: height}.Image()

	c.m.Lock()
	draw.Draw(
		c.img,
		tile.Bounds(),     // destination rectangle (global coords)
		tile,              // source image
		tile.Bounds().Min, // source start
		draw.Src,
	)
	c.m.Unlock()

	if c.OnTile != nil {
		c.OnTile(tile.Bounds())
	}
}

// Image implements ImgProvider.
func (c *Canvas) Image() *image.RGBA {
	c.m.Lock()
	defer c.m.Unlock()

	cp := image.NewRGBA(c.img.Bounds())
	copy(cp.Pix, c.img.Pix)
	return cp
}

// CopyPix copies the current pixels into dst, which must be len(Pix) long.
func (c *Canvas) CopyPix(dst []byte) {
	c.m.Lock()
	copy(dst, c.img.Pix)
	c.m.Unlock()
}

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle {
	return c.img.Bounds()
}
