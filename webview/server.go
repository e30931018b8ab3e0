package webview

import (
	"context"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/marben/mandelzoom/config"
)

// NewServer returns an http server exposing
//
//	/ws         websocket endpoint for viewers
//	/image.png  the current composed frame
//	/           files from staticDir (index.html, main.wasm, wasm_exec.js)
//
// Viewer connections are closed when ctx is done. The websocket accepts
// same-origin pages plus hosts matching listen.Origins.
func NewServer(ctx context.Context, listen config.Listen, hub *Hub, ctrl Controller, staticDir string) *http.Server {
	addr := listen.HTTP
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.websocketHandler(ctrl, listen.Origins))
	mux.HandleFunc("/image.png", hub.imageHandler)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	log.Printf("listening on http://%s", displayAddr(addr))
	return srv
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
