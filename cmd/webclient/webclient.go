//go:build js && wasm

// webclient.go is a WASM web client for the Mandelbrot server.
// It receives finished tiles over a websocket and draws them onto a canvas,
// and sends back zoom selections and parameter changes.
//
// Build with:
//
//	GOOS=js GOARCH=wasm go build -o static/main.wasm ./cmd/webclient
//	cp "$(go env GOROOT)/lib/wasm/wasm_exec.js" static/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"syscall/js"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/marben/mandelzoom/webview"
)

// readLimit must fit the full-frame snapshot sent on connect.
const readLimit = 64 << 20

// main is the entry point for the WASM web client.
// It connects to the Mandelbrot server and keeps the canvas and HUD in sync with it.
func main() {
	logScreenf("Starting WASM web client...")

	// Step 1: Determine server address for WebSocket connection
	loc := js.Global().Get("window").Get("location")
	host := loc.Get("host").String()
	proto := "ws"
	if loc.Get("protocol").String() == "https:" {
		proto = "wss"
	}
	websocketUrl := proto + "://" + host + "/ws"

	// Step 2: Connect to server via WebSocket
	ctx := context.Background()
	logScreenf("Connecting to Mandelbrot server at %s...", websocketUrl)
	conn, _, err := websocket.Dial(ctx, websocketUrl, nil)
	if err != nil {
		logFatalf("Failed to connect: %v", err)
	}
	conn.SetReadLimit(readLimit)
	logScreenf("WebSocket connected.")

	// Step 3: Wire canvas gestures and the parameter panel to the connection
	send := func(msg webview.Message) {
		go func() {
			if err := wsjson.Write(ctx, conn, msg); err != nil {
				logScreenf("send %s: %v", msg.Type, err)
			}
		}()
	}
	installSelector(send)
	installPanel(send)

	// Step 4: Apply server messages until the connection drops
	if err := messageLoop(ctx, conn); err != nil {
		logFatalf("messageLoop: %v", err)
	}
}

// messageLoop draws binary tile messages and applies JSON status messages.
func messageLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}

		if typ == websocket.MessageBinary {
			tile, err := webview.DecodeTile(data)
			if err != nil {
				return err
			}
			drawTileToCanvas(tile.Image())
			hudTileDone()
			continue
		}

		var msg webview.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("decode message: %w", err)
		}
		switch msg.Type {
		case webview.TypeHello:
			logScreenf("Dimensions: %dx%d", msg.Width, msg.Height)
			initCanvas(msg.Width, msg.Height, "#3a3a6e")
			panelSetParams(msg.Params)
			hudSetBounds(msg.Bounds)
		case webview.TypeFrame:
			hudStartFrame(msg.Frame, msg.Tiles)
			hudSetBounds(msg.Bounds)
			panelSetParams(msg.Params)
		case webview.TypeDone:
			hudFinishFrame(msg.RenderTime, msg.Workers, msg.Error)
		}
	}
}

// logScreenf appends a formatted message to the log element in the DOM.
func logScreenf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)

	doc := js.Global().Get("document")
	logElem := doc.Call("getElementById", "log")
	logElem.Set("textContent", logElem.Get("textContent").String()+msg+"\n")
}

// logFatalf logs a fatal error to the log window and terminates the program.
func logFatalf(format string, a ...any) {
	logScreenf("FATAL: "+format, a...)
	log.Fatalf(format, a...)
}
