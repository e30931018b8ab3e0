// Package session glues the coordinate model, the tile partitioner and the
// worker pool together and feeds finished tiles to a compositor.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	mandel "github.com/marben/mandelzoom"
	"github.com/marben/mandelzoom/config"
	"github.com/marben/mandelzoom/scheduler"
)

type Option func(*Session)

// WithLogger replaces log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.log = l }
}

// WithPoolOptions passes extra options to the worker pool.
func WithPoolOptions(opts ...scheduler.Option) Option {
	return func(s *Session) { s.poolOpts = append(s.poolOpts, opts...) }
}

// Session owns the current view. Render, Zoom, SetParams and Reset must be
// called from one goroutine at a time; Run does that for events posted
// from anywhere. The getters are safe from any goroutine.
type Session struct {
	width, height int
	initial       mandel.Bounds
	renderer      mandel.Renderer
	comp          mandel.Compositor
	log           *log.Logger
	poolOpts      []scheduler.Option
	pool          *scheduler.Pool

	events chan event

	m      sync.Mutex
	bounds mandel.Bounds
	params mandel.Params
	seq    uint64
	last   mandel.Stats
}

func New(cfg *config.Config, r mandel.Renderer, comp mandel.Compositor, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b, err := mandel.ComputeBounds(cfg.InitialRegion(), cfg.Aspect())
	if err != nil {
		return nil, fmt.Errorf("initial bounds: %w", err)
	}

	s := &Session{
		width:    cfg.Surface.Width,
		height:   cfg.Surface.Height,
		initial:  b,
		renderer: r,
		comp:     comp,
		log:      log.Default(),
		events:   make(chan event, 16),
		bounds:   b,
		params:   cfg.Params,
	}
	for _, o := range opts {
		o(s)
	}

	poolOpts := []scheduler.Option{
		scheduler.WithMaxConcurrency(cfg.MaxConcurrency),
		scheduler.WithTaskTimeout(cfg.TaskTimeout),
		scheduler.WithOnWorkers(func(n int) { s.log.Printf("workers: %d", n) }),
	}
	s.pool = scheduler.New(r, append(poolOpts, s.poolOpts...)...)
	return s, nil
}

// Size returns the surface dimensions.
func (s *Session) Size() (w, h int) {
	return s.width, s.height
}

func (s *Session) Bounds() mandel.Bounds {
	s.m.Lock()
	defer s.m.Unlock()
	return s.bounds
}

func (s *Session) Params() mandel.Params {
	s.m.Lock()
	defer s.m.Unlock()
	return s.params
}

// LastStats returns the stats of the most recent render.
func (s *Session) LastStats() mandel.Stats {
	s.m.Lock()
	defer s.m.Unlock()
	return s.last
}

// Workers is the number of live pool workers.
func (s *Session) Workers() int {
	return s.pool.Workers()
}

// Render draws the current view with the current params.
func (s *Session) Render(ctx context.Context) (mandel.Stats, error) {
	s.m.Lock()
	b, p := s.bounds, s.params
	s.seq++
	seq := s.seq
	s.m.Unlock()

	tiles, err := mandel.Partition(s.width, s.height, p.TileWidth, p.TileHeight)
	if err != nil {
		return mandel.Stats{}, fmt.Errorf("partition: %w", err)
	}
	tasks := mandel.NewTasks(tiles, b, s.width, s.height, p.MaxIterations)

	frame := mandel.Frame{Seq: seq, Width: s.width, Height: s.height, Bounds: b, Params: p, Tiles: len(tiles)}
	obs, _ := s.comp.(mandel.FrameObserver)
	if obs != nil {
		obs.FrameStarted(frame)
	}

	s.log.Printf("frame %d: %d tiles of %dx%d, %d iterations, %s", seq, len(tiles), p.TileWidth, p.TileHeight, p.MaxIterations, b)

	start := time.Now()
	err = s.pool.Run(ctx, tasks, func(res mandel.TaskResult) {
		s.comp.DeliverTile(res.Pix, res.TileOriginX, res.TileOriginY, res.TileWidth, res.TileHeight)
	})
	stats := mandel.Stats{
		Tiles:   len(tiles),
		Workers: s.pool.Concurrency(len(tasks)),
		Elapsed: time.Since(start),
	}

	if obs != nil {
		obs.FrameFinished(frame, stats, err)
	}
	if err != nil {
		return stats, fmt.Errorf("frame %d: %w", seq, err)
	}

	s.m.Lock()
	s.last = stats
	s.m.Unlock()

	s.log.Printf("frame %d: rendered in %s", seq, stats.RenderTime())
	return stats, nil
}

// Zoom moves the view to the selected pixel rectangle and re-renders.
// Selections without area after clamping are ignored and report false.
func (s *Session) Zoom(ctx context.Context, sel mandel.Selection) (bool, error) {
	sel = sel.Normalize(s.width, s.height)
	if sel.Empty() {
		return false, nil
	}

	s.m.Lock()
	nb, err := s.bounds.Zoom(sel, s.width, s.height)
	if err == nil {
		s.bounds = nb
	}
	s.m.Unlock()
	if err != nil {
		return false, fmt.Errorf("zoom %+v: %w", sel, err)
	}

	_, err = s.Render(ctx)
	return true, err
}

// SetParams installs p. A changed iteration cap re-renders the current view
// right away and reports true; tile size changes wait for the next render.
func (s *Session) SetParams(ctx context.Context, p mandel.Params) (bool, error) {
	if err := p.Validate(); err != nil {
		return false, err
	}

	s.m.Lock()
	old := s.params
	s.params = p
	s.m.Unlock()

	if p.MaxIterations == old.MaxIterations {
		return false, nil
	}
	_, err := s.Render(ctx)
	return true, err
}

// Reset returns to the initial view and re-renders.
func (s *Session) Reset(ctx context.Context) error {
	s.m.Lock()
	s.bounds = s.initial
	s.m.Unlock()

	_, err := s.Render(ctx)
	return err
}

// ------------------------------ event loop ------------------------------

type eventKind int

const (
	evSelect eventKind = iota
	evParams
	evReset
	evRender
)

type event struct {
	kind   eventKind
	sel    mandel.Selection
	params mandel.Params
}

func (s *Session) post(ctx context.Context, ev event) error {
	select {
	case s.events <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Select queues a zoom to sel.
func (s *Session) Select(ctx context.Context, sel mandel.Selection) error {
	return s.post(ctx, event{kind: evSelect, sel: sel})
}

// UpdateParams queues a parameter change.
func (s *Session) UpdateParams(ctx context.Context, p mandel.Params) error {
	return s.post(ctx, event{kind: evParams, params: p})
}

// RequestReset queues a return to the initial view.
func (s *Session) RequestReset(ctx context.Context) error {
	return s.post(ctx, event{kind: evReset})
}

// RequestRender queues a redraw of the current view.
func (s *Session) RequestRender(ctx context.Context) error {
	return s.post(ctx, event{kind: evRender})
}

// Run renders the initial view, then handles queued events one at a time
// until ctx is done. A render never overlaps another; events posted while
// a batch runs wait for it. Failed renders are logged and do not stop Run.
func (s *Session) Run(ctx context.Context) error {
	if _, err := s.Render(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Printf("render: %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-s.events:
			if err := s.handle(ctx, ev); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.log.Printf("event %d: %v", ev.kind, err)
			}
		}
	}
}

func (s *Session) handle(ctx context.Context, ev event) error {
	switch ev.kind {
	case evSelect:
		ok, err := s.Zoom(ctx, ev.sel)
		if !ok && err == nil {
			s.log.Printf("ignoring empty selection %+v", ev.sel)
		}
		return err
	case evParams:
		_, err := s.SetParams(ctx, ev.params)
		return err
	case evReset:
		return s.Reset(ctx)
	case evRender:
		_, err := s.Render(ctx)
		return err
	}
	return errors.New("unknown event")
}
