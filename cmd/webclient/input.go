//go:build js && wasm

package main

import (
	"strconv"
	"syscall/js"

	mandel "github.com/marben/mandelzoom"
	"github.com/marben/mandelzoom/webview"
)

// canvasPoint maps a pointer event to canvas pixels, undoing any css scaling.
func canvasPoint(canvas, ev js.Value) (int, int) {
	rect := canvas.Call("getBoundingClientRect")
	w, h := rect.Get("width").Float(), rect.Get("height").Float()
	if w == 0 || h == 0 {
		return 0, 0
	}
	x := (ev.Get("clientX").Float() - rect.Get("left").Float()) * canvas.Get("width").Float() / w
	y := (ev.Get("clientY").Float() - rect.Get("top").Float()) * canvas.Get("height").Float() / h
	return int(x), int(y)
}

// installSelector turns a drag on the canvas into a select message.
// The rubber band is drawn by positioning the #selection element over the canvas.
func installSelector(send func(webview.Message)) {
	doc := js.Global().Get("document")
	canvas := canvasElem()
	band := doc.Call("getElementById", "selection")

	var (
		dragging     bool
		sel          mandel.Selection
		startClientX float64
		startClientY float64
	)

	showBand := func(ev js.Value) {
		if band.IsNull() {
			return
		}
		x0, y0 := startClientX, startClientY
		x1, y1 := ev.Get("clientX").Float(), ev.Get("clientY").Float()
		if x1 < x0 {
			x0, x1 = x1, x0
		}
		if y1 < y0 {
			y0, y1 = y1, y0
		}
		style := band.Get("style")
		style.Set("display", "block")
		style.Set("left", strconv.FormatFloat(x0+js.Global().Get("scrollX").Float(), 'f', 0, 64)+"px")
		style.Set("top", strconv.FormatFloat(y0+js.Global().Get("scrollY").Float(), 'f', 0, 64)+"px")
		style.Set("width", strconv.FormatFloat(x1-x0, 'f', 0, 64)+"px")
		style.Set("height", strconv.FormatFloat(y1-y0, 'f', 0, 64)+"px")
	}

	canvas.Call("addEventListener", "pointerdown", js.FuncOf(func(this js.Value, args []js.Value) any {
		ev := args[0]
		ev.Call("preventDefault")
		canvas.Call("setPointerCapture", ev.Get("pointerId"))
		dragging = true
		sel.StartX, sel.StartY = canvasPoint(canvas, ev)
		startClientX, startClientY = ev.Get("clientX").Float(), ev.Get("clientY").Float()
		return nil
	}))
	canvas.Call("addEventListener", "pointermove", js.FuncOf(func(this js.Value, args []js.Value) any {
		if dragging {
			showBand(args[0])
		}
		return nil
	}))
	canvas.Call("addEventListener", "pointerup", js.FuncOf(func(this js.Value, args []js.Value) any {
		if !dragging {
			return nil
		}
		dragging = false
		if !band.IsNull() {
			band.Get("style").Set("display", "none")
		}
		sel.EndX, sel.EndY = canvasPoint(canvas, args[0])

		// the server clamps too, but an empty drag is a click and not worth a round trip
		n := sel.Normalize(canvas.Get("width").Int(), canvas.Get("height").Int())
		if n.Empty() {
			return nil
		}
		s := sel
		send(webview.Message{Type: webview.TypeSelect, Selection: &s})
		return nil
	}))
}

// installPanel sends the parameter inputs on "apply" and wires the reset button.
func installPanel(send func(webview.Message)) {
	doc := js.Global().Get("document")

	if apply := doc.Call("getElementById", "apply"); !apply.IsNull() {
		apply.Call("addEventListener", "click", js.FuncOf(func(this js.Value, args []js.Value) any {
			p, err := panelParams()
			if err != nil {
				logScreenf("params: %v", err)
				return nil
			}
			send(webview.Message{Type: webview.TypeParams, Params: &p})
			return nil
		}))
	}
	if reset := doc.Call("getElementById", "reset"); !reset.IsNull() {
		reset.Call("addEventListener", "click", js.FuncOf(func(this js.Value, args []js.Value) any {
			send(webview.Message{Type: webview.TypeReset})
			return nil
		}))
	}
}

var paramInputs = [...]string{"tileWidth", "tileHeight", "maxIterations"}

func panelParams() (mandel.Params, error) {
	var v [len(paramInputs)]int
	for i, id := range paramInputs {
		el := js.Global().Get("document").Call("getElementById", id)
		if el.IsNull() {
			continue
		}
		n, err := strconv.Atoi(el.Get("value").String())
		if err != nil {
			return mandel.Params{}, err
		}
		v[i] = n
	}
	p := mandel.Params{TileWidth: v[0], TileHeight: v[1], MaxIterations: v[2]}
	return p, p.Validate()
}

func panelSetParams(p *mandel.Params) {
	if p == nil {
		return
	}
	vals := [len(paramInputs)]int{p.TileWidth, p.TileHeight, p.MaxIterations}
	for i, id := range paramInputs {
		el := js.Global().Get("document").Call("getElementById", id)
		if el.IsNull() {
			continue
		}
		el.Set("value", strconv.Itoa(vals[i]))
	}
}
