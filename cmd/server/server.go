package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	mandel "github.com/marben/mandelzoom"
	"github.com/marben/mandelzoom/config"
	"github.com/marben/mandelzoom/render"
	"github.com/marben/mandelzoom/session"
	"github.com/marben/mandelzoom/webview"
	"github.com/marben/mandelzoom/worker"
)

// main is the entry point for the Mandelbrot server.
// Rendering runs on a local worker pool; browsers connected over websocket
// watch tiles arrive and drive the zoom.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML file overriding the embedded defaults")
	addr := flag.String("http", "", "listen address, overrides listen.http")
	static := flag.String("static", "./static", "directory holding index.html, main.wasm and wasm_exec.js")
	throttle := flag.Duration("throttle", 0, "artificial delay per tile, to watch the fill order")
	workerBin := flag.String("worker", "", "render in this worker binary (cmd/client), overrides the config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Listen.HTTP = *addr
	}
	if *workerBin != "" {
		cfg.Worker = *workerBin
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// hub is the compositor: it keeps the composed frame and streams tiles to viewers
	hub := webview.NewHub(cfg.Surface.Width, cfg.Surface.Height)

	var renderer mandel.Renderer = render.RendererImpl{Throttle: *throttle}
	if cfg.Worker != "" {
		proc, err := worker.StartBinary(ctx, cfg.Worker, cfg.Concurrency(), "-throttle", throttle.String())
		if err != nil {
			return err
		}
		defer proc.Close()
		renderer = proc
	}

	sess, err := session.New(cfg, renderer, hub)
	if err != nil {
		return fmt.Errorf("session.New: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	httpServer := webview.NewServer(ctx, cfg.Listen, hub, sess, *static)

	// httpServer provides index.html, main.wasm along with websocket endpoint
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("httpServer: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(sctx)
	})

	// session renders the initial view, then one zoom/params event at a time
	g.Go(func() error {
		return sess.Run(ctx)
	})

	log.Printf("mb server rendering %dx%d with tiles %dx%d", cfg.Surface.Width, cfg.Surface.Height, cfg.Params.TileWidth, cfg.Params.TileHeight)
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("shutdown complete")
	return nil
}
