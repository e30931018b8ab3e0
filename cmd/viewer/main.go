// viewer is a desktop window onto the Mandelbrot set.
// Tiles are rendered on the local worker pool, or in a -worker process,
// and painted as they finish.
//
//	drag   zoom into the selected rectangle
//	+ / -  double / halve the iteration count
//	r      back to the starting region
//	esc    quit
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	mandel "github.com/marben/mandelzoom"
	"github.com/marben/mandelzoom/config"
	"github.com/marben/mandelzoom/render"
	"github.com/marben/mandelzoom/session"
	"github.com/marben/mandelzoom/worker"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if err := run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "", "YAML file overriding the embedded defaults")
	region := flag.String("region", "", "starting region, one of "+strings.Join(mandel.RegionNames(), ", "))
	width := flag.Int("w", 1024, "surface width, overrides the config")
	height := flag.Int("h", 640, "surface height, overrides the config")
	workerBin := flag.String("worker", "", "render in this worker binary (cmd/client), overrides the config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *region != "" {
		cfg.Region = *region
	}
	cfg.Surface.Width, cfg.Surface.Height = *width, *height
	if *workerBin != "" {
		cfg.Worker = *workerBin
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v := &viewer{ctx: ctx, stop: cancel}
	v.canvas = mandel.NewCanvas(cfg.Surface.Width, cfg.Surface.Height)
	v.canvas.OnTile = func(image.Rectangle) { v.dirty.Store(true) }

	var renderer mandel.Renderer = render.RendererImpl{}
	if cfg.Worker != "" {
		proc, err := worker.StartBinary(ctx, cfg.Worker, cfg.Concurrency())
		if err != nil {
			return err
		}
		defer proc.Close()
		renderer = proc
	}

	sess, err := session.New(cfg, renderer, v.canvas)
	if err != nil {
		return fmt.Errorf("session.New: %w", err)
	}
	v.sess = sess

	done := make(chan error, 1)
	go func() { done <- sess.Run(ctx) }()

	ebiten.SetWindowTitle("mandelzoom - " + cfg.Region)
	ebiten.SetWindowSize(cfg.Surface.Width, cfg.Surface.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	err = ebiten.RunGame(v)
	cancel()
	if rerr := <-done; !errors.Is(rerr, context.Canceled) && err == nil {
		err = rerr
	}
	if errors.Is(err, ebiten.Termination) {
		return nil
	}
	return err
}

type viewer struct {
	ctx  context.Context
	stop context.CancelFunc
	sess *session.Session

	canvas  *mandel.Canvas
	dirty   atomic.Bool
	fbImg   *ebiten.Image
	scratch []byte

	dragging   bool
	dragStartX int
	dragStartY int
}

// post hands an event to the session without stalling the game loop.
func (v *viewer) post(f func(context.Context) error) {
	go func() {
		if err := f(v.ctx); err != nil && v.ctx.Err() == nil {
			log.Printf("post: %v", err)
		}
	}()
}

func (v *viewer) Update() error {
	if v.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	x, y := ebiten.CursorPosition()
	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		v.dragging = true
		v.dragStartX, v.dragStartY = x, y
	case v.dragging && inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		v.dragging = false
		sel := mandel.Selection{StartX: v.dragStartX, StartY: v.dragStartY, EndX: x, EndY: y}
		v.post(func(ctx context.Context) error { return v.sess.Select(ctx, sel) })
	}

	p := v.sess.Params()
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyR):
		v.post(v.sess.RequestReset)
	case inpututil.IsKeyJustPressed(ebiten.KeyEqual), inpututil.IsKeyJustPressed(ebiten.KeyKPAdd):
		p.MaxIterations *= 2
		v.post(func(ctx context.Context) error { return v.sess.UpdateParams(ctx, p) })
	case inpututil.IsKeyJustPressed(ebiten.KeyMinus), inpututil.IsKeyJustPressed(ebiten.KeyKPSubtract):
		if p.MaxIterations > 1 {
			p.MaxIterations /= 2
			v.post(func(ctx context.Context) error { return v.sess.UpdateParams(ctx, p) })
		}
	}
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	r := v.canvas.Bounds()
	if v.fbImg == nil {
		v.fbImg = ebiten.NewImage(r.Dx(), r.Dy())
		v.scratch = make([]byte, 4*r.Dx()*r.Dy())
		v.dirty.Store(true)
	}
	if v.dirty.Swap(false) {
		v.canvas.CopyPix(v.scratch)
		v.fbImg.WritePixels(v.scratch)
	}
	screen.DrawImage(v.fbImg, nil)

	if v.dragging {
		x, y := ebiten.CursorPosition()
		x0, y0 := min(x, v.dragStartX), min(y, v.dragStartY)
		w, h := abs(x-v.dragStartX), abs(y-v.dragStartY)
		vector.StrokeRect(screen, float32(x0), float32(y0), float32(w), float32(h), 1, color.White, false)
	}

	stats := v.sess.LastStats()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("%s  %d tiles  %d workers  iter %d\n%s",
		stats.RenderTime(), stats.Tiles, stats.Workers, v.sess.Params().MaxIterations, v.sess.Bounds()))
}

// Layout pins the logical screen to the surface so cursor positions are surface pixels.
func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	r := v.canvas.Bounds()
	return r.Dx(), r.Dy()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
