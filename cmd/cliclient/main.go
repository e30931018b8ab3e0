// cliclient renders one frame on the local worker pool and saves it as a PNG file.
// Zoom selections given with -zoom are applied in order, each relative to the
// view left by the previous one, exactly as dragging in a viewer would.

package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	mandel "github.com/marben/mandelzoom"
	"github.com/marben/mandelzoom/config"
	"github.com/marben/mandelzoom/hud"
	"github.com/marben/mandelzoom/render"
	"github.com/marben/mandelzoom/session"
	"github.com/marben/mandelzoom/worker"
)

// main is the entry point for the CLI client.
// It runs the client logic and logs any fatal errors.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("Starting CLI client...")
	if err := run(); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

// selections collects repeated -zoom flags.
type selections []mandel.Selection

func (s *selections) String() string {
	return fmt.Sprint(*s)
}

func (s *selections) Set(v string) error {
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return fmt.Errorf("want startX,startY,endX,endY, got %q", v)
	}
	var n [4]int
	for i, p := range parts {
		x, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("zoom %q: %w", v, err)
		}
		n[i] = x
	}
	*s = append(*s, mandel.Selection{StartX: n[0], StartY: n[1], EndX: n[2], EndY: n[3]})
	return nil
}

// run renders the requested view and writes it to disk.
// Returns an error if any step fails.
func run() error {
	var zooms selections
	configPath := flag.String("config", "", "YAML file overriding the embedded defaults")
	region := flag.String("region", "", "starting region, one of "+strings.Join(mandel.RegionNames(), ", "))
	iterations := flag.Int("iter", 0, "max iterations, overrides the config")
	filename := flag.String("o", "mandel.png", "output file")
	thumb := flag.String("thumb", "", "also write a scaled copy fitting WxH next to the output")
	stamp := flag.Bool("hud", false, "stamp render time and bounds onto the image")
	verbose := flag.Bool("v", false, "log every tile")
	workerBin := flag.String("worker", "", "render in this worker binary (cmd/client), overrides the config")
	flag.Var(&zooms, "zoom", "pixel selection startX,startY,endX,endY (repeatable)")
	flag.Parse()

	// Step 1: Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *region != "" {
		cfg.Region = *region
	}
	if *iterations > 0 {
		cfg.Params.MaxIterations = *iterations
	}
	if *workerBin != "" {
		cfg.Worker = *workerBin
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Step 2: Set up the renderer and the canvas collecting tiles
	local := render.RendererImpl{}
	if *verbose {
		local.OnTileRender = func(tile mandel.Tile) { log.Printf("Rendering tile: %s", tile) }
	}
	var renderer mandel.Renderer = local
	if cfg.Worker != "" {
		var args []string
		if *verbose {
			args = append(args, "-v")
		}
		proc, err := worker.StartBinary(ctx, cfg.Worker, cfg.Concurrency(), args...)
		if err != nil {
			return err
		}
		defer proc.Close()
		renderer = proc
	}
	canvas := mandel.NewCanvas(cfg.Surface.Width, cfg.Surface.Height)
	sess, err := session.New(cfg, renderer, canvas)
	if err != nil {
		return fmt.Errorf("session.New: %w", err)
	}

	// Step 3: Render, zooming in as requested
	log.Printf("Rendering %dx%d at %s...", cfg.Surface.Width, cfg.Surface.Height, sess.Bounds())
	if _, err := sess.Render(ctx); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	for _, sel := range zooms {
		ok, err := sess.Zoom(ctx, sel)
		if err != nil {
			return fmt.Errorf("zoom %+v: %w", sel, err)
		}
		if !ok {
			log.Printf("Ignoring empty selection %+v", sel)
			continue
		}
		log.Printf("Zoomed to %s", sess.Bounds())
	}

	img := canvas.Image()
	if *stamp {
		stats := sess.LastStats()
		hud.Stamp(img, stats.RenderTime(), sess.Bounds().String(), fmt.Sprintf("%d tiles, %d workers", stats.Tiles, stats.Workers))
	}

	// Step 4: Save the rendered image to a PNG file
	log.Printf("Saving rendered image to %q...", *filename)
	if err := savePNG(*filename, img); err != nil {
		return err
	}

	if *thumb != "" {
		var w, h int
		if _, err := fmt.Sscanf(*thumb, "%dx%d", &w, &h); err != nil || w < 1 || h < 1 {
			return fmt.Errorf("bad -thumb %q, want WxH", *thumb)
		}
		name := strings.TrimSuffix(*filename, ".png") + ".thumb.png"
		if err := savePNG(name, hud.Scale(img, w, h)); err != nil {
			return err
		}
		log.Printf("Thumbnail saved to %q", name)
	}

	log.Printf("Fully rendered image saved to %q", *filename)
	return nil
}

func savePNG(filename string, img image.Image) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return f.Close()
}
