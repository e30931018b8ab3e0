// client is an out-of-process render worker. It serves render.RendererImpl
// over irpc on stdin/stdout and exits when the parent hangs up.
// The server and cliclient start it with -worker.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"

	mandel "github.com/marben/mandelzoom"
	"github.com/marben/mandelzoom/render"
	"github.com/marben/mandelzoom/worker"
)

func main() {
	// stdout carries the rpc stream; keep log output on stderr
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetPrefix("worker: ")

	if err := run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func run() error {
	parallel := flag.Int("parallel", runtime.NumCPU(), "tiles rendered at once")
	throttle := flag.Duration("throttle", 0, "artificial delay per tile")
	verbose := flag.Bool("v", false, "log every tile")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	renderer := render.RendererImpl{Throttle: *throttle}
	if *verbose {
		renderer.OnTileRender = func(tile mandel.Tile) { log.Printf("rendering tile: %s", tile) }
	}

	log.Printf("serving on stdio with %d parallel renders", *parallel)
	if err := worker.Serve(ctx, worker.Stdio(), renderer, *parallel); err != nil {
		return err
	}
	log.Printf("parent hung up")
	return nil
}
