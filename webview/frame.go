// Package webview streams finished tiles to browsers over websockets and
// turns their selections and parameter changes into session events.
//
// Tiles travel as binary messages: a 16 byte little-endian header
// (originX, originY, width, height as uint32) followed by RGBA pixels.
// Everything else is a JSON text Message.
package webview

import (
	"encoding/binary"
	"errors"
	"fmt"

	mandel "github.com/marben/mandelzoom"
)

const headerSize = 16

var ErrBadFrame = errors.New("bad tile frame")

// EncodeTile packs one tile into a binary websocket payload.
func EncodeTile(pix []byte, x, y, w, h int) []byte {
	b := make([]byte, headerSize+len(pix))
	binary.LittleEndian.PutUint32(b[0:], uint32(x))
	binary.LittleEndian.PutUint32(b[4:], uint32(y))
	binary.LittleEndian.PutUint32(b[8:], uint32(w))
	binary.LittleEndian.PutUint32(b[12:], uint32(h))
	copy(b[headerSize:], pix)
	return b
}

// DecodeTile is the inverse of EncodeTile. The returned buffer aliases b.
func DecodeTile(b []byte) (mandel.TaskResult, error) {
	if len(b) < headerSize {
		return mandel.TaskResult{}, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(b))
	}
	res := mandel.TaskResult{
		TileOriginX: int(binary.LittleEndian.Uint32(b[0:])),
		TileOriginY: int(binary.LittleEndian.Uint32(b[4:])),
		TileWidth:   int(binary.LittleEndian.Uint32(b[8:])),
		TileHeight:  int(binary.LittleEndian.Uint32(b[12:])),
		Pix:         b[headerSize:],
	}
	if want := 4 * res.TileWidth * res.TileHeight; len(res.Pix) != want {
		return mandel.TaskResult{}, fmt.Errorf("%w: %d pixel bytes for %dx%d", ErrBadFrame, len(res.Pix), res.TileWidth, res.TileHeight)
	}
	return res, nil
}

// Message types.
const (
	// server → client
	TypeHello = "hello"
	TypeFrame = "frame"
	TypeDone  = "done"

	// client → server
	TypeSelect = "select"
	TypeParams = "params"
	TypeReset  = "reset"
)

// Message is the JSON envelope for every non-tile message.
type Message struct {
	Type string `json:"type"`

	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	Frame  uint64  `json:"frame,omitempty"`
	Tiles  int     `json:"tiles,omitempty"`
	Bounds *Window `json:"bounds,omitempty"`

	RenderTime string `json:"renderTime,omitempty"`
	Workers    int    `json:"workers,omitempty"`
	Error      string `json:"error,omitempty"`

	Selection *mandel.Selection `json:"selection,omitempty"`
	Params    *mandel.Params    `json:"params,omitempty"`
}

// Window is the displayed part of the complex plane.
type Window struct {
	MinRe float64 `json:"minRe"`
	MaxRe float64 `json:"maxRe"`
	MinIm float64 `json:"minIm"`
	MaxIm float64 `json:"maxIm"`
}

func windowOf(b mandel.Bounds) *Window {
	return &Window{MinRe: b.MinRe, MaxRe: b.MaxRe, MinIm: b.MinIm, MaxIm: b.MaxIm}
}
