//go:build js && wasm

package main

import (
	"fmt"
	"image"
	"syscall/js"

	"github.com/marben/mandelzoom/webview"
)

func canvasElem() js.Value {
	return js.Global().Get("document").Call("getElementById", "myCanvas")
}

// initCanvas sizes the canvas to the server surface and fills it with color.
func initCanvas(width, height int, color string) {
	canvas := canvasElem()
	canvas.Set("width", width)
	canvas.Set("height", height)

	ctx := canvas.Call("getContext", "2d")
	ctx.Set("fillStyle", color)
	ctx.Call("fillRect", 0, 0, width, height)
}

// drawTileToCanvas puts the tile at its own origin on the canvas.
func drawTileToCanvas(tile *image.RGBA) {
	ctx := canvasElem().Call("getContext", "2d")

	// tile.Pix starts at the tile's first pixel, so ImageData takes the tile's own size
	jsData := js.Global().Get("Uint8ClampedArray").New(len(tile.Pix))
	js.CopyBytesToJS(jsData, tile.Pix)
	width := tile.Rect.Dx()
	height := tile.Rect.Dy()
	imageData := js.Global().Get("ImageData").New(jsData, width, height)

	ctx.Call("putImageData", imageData, tile.Rect.Min.X, tile.Rect.Min.Y)
}

// hud counters mirrored into the page
var (
	tilesDone  int
	tilesTotal int
)

func setText(id string, v any) {
	el := js.Global().Get("document").Call("getElementById", id)
	if el.IsNull() {
		return
	}
	el.Set("textContent", fmt.Sprint(v))
}

func hudStartFrame(frame uint64, tiles int) {
	tilesDone = 0
	tilesTotal = tiles
	setText("frame", frame)
	setText("tilesDone", tilesDone)
	setText("tilesTotal", tilesTotal)
	setText("renderTime", "rendering...")
}

func hudTileDone() {
	tilesDone++
	setText("tilesDone", tilesDone)
}

func hudFinishFrame(renderTime string, workers int, errMsg string) {
	setText("workersRunning", workers)
	if errMsg != "" {
		setText("renderTime", "failed")
		logScreenf("render failed: %s", errMsg)
		return
	}
	setText("renderTime", renderTime)
}

func hudSetBounds(w *webview.Window) {
	if w == nil {
		return
	}
	setText("bounds", fmt.Sprintf("re [%.6g, %.6g] im [%.6g, %.6g]", w.MinRe, w.MaxRe, w.MinIm, w.MaxIm))
}
