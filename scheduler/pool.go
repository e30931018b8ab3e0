// Package scheduler runs batches of render tasks on a bounded set of
// goroutine workers.
//
// Each batch gets a fresh pool of min(len(tasks), MaxConcurrency) workers.
// The first tasks go straight to the workers in order, the rest wait in a
// FIFO owned by the goroutine calling Run. Whenever a worker reports back,
// its result is delivered on that goroutine, then the worker either gets
// the next queued task or is retired. Run returns when the last worker
// retires.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	mandel "github.com/marben/mandelzoom"
)

var (
	// ErrBatchFailed wraps every error returned from Run.
	ErrBatchFailed = errors.New("batch failed")
	// ErrTaskTimeout is the cause of a task exceeding WithTaskTimeout.
	ErrTaskTimeout = errors.New("task timed out")
	// ErrRendererStuck reports a renderer still running WithStuckGrace after
	// its context was done. The call is abandoned.
	ErrRendererStuck = errors.New("renderer ignored cancellation")
)

const defaultStuckGrace = time.Second

type Option func(*Pool)

// WithMaxConcurrency caps the number of workers per batch. Values below 1
// are ignored.
func WithMaxConcurrency(n int) Option {
	return func(p *Pool) {
		if n >= 1 {
			p.maxConcurrency = n
		}
	}
}

// WithTaskTimeout bounds how long a single task may run. A task that runs
// out of time fails the whole batch.
func WithTaskTimeout(d time.Duration) Option {
	return func(p *Pool) { p.taskTimeout = d }
}

// WithStuckGrace sets how long a worker waits for a renderer to return
// once the task's context is done before giving up on it.
func WithStuckGrace(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.stuckGrace = d
		}
	}
}

// WithOnWorkers registers a hook called from Run whenever the number of
// live workers changes.
func WithOnWorkers(f func(live int)) Option {
	return func(p *Pool) { p.onWorkers = f }
}

// Pool dispatches tasks to a mandel.Renderer. A Pool may be reused for
// any number of sequential Run calls but must not run two batches at once.
type Pool struct {
	renderer       mandel.Renderer
	maxConcurrency int
	taskTimeout    time.Duration
	stuckGrace     time.Duration
	onWorkers      func(int)

	live      atomic.Int32
	completed atomic.Int64
}

func New(r mandel.Renderer, opts ...Option) *Pool {
	p := &Pool{
		renderer:       r,
		maxConcurrency: runtime.GOMAXPROCS(0),
		stuckGrace:     defaultStuckGrace,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// MaxConcurrency is the upper bound on workers in one batch.
func (p *Pool) MaxConcurrency() int {
	return p.maxConcurrency
}

// Concurrency is the number of workers a batch of n tasks gets.
func (p *Pool) Concurrency(n int) int {
	return min(n, p.maxConcurrency)
}

// Workers returns the number of live workers. Safe from any goroutine.
func (p *Pool) Workers() int {
	return int(p.live.Load())
}

// Completed returns the number of tasks delivered since the pool was created.
func (p *Pool) Completed() int64 {
	return p.completed.Load()
}

type workerState int

const (
	idle workerState = iota
	busy
	retired
)

type worker struct {
	id    int
	in    chan mandel.Task
	state workerState
}

// assign hands t to the worker. in has room for one task and a worker is
// only assigned while idle, so this never blocks.
func (w *worker) assign(t mandel.Task) {
	if w.state != idle {
		panic(fmt.Sprintf("scheduler: assign to worker %d in state %d", w.id, w.state))
	}
	w.state = busy
	w.in <- t
}

func (w *worker) retire() {
	if w.state == retired {
		return
	}
	w.state = retired
	close(w.in)
}

type message struct {
	worker int
	res    mandel.TaskResult
	err    error
}

// Run renders tasks and calls deliver once per task, on the calling
// goroutine, in completion order. It returns after every task has been
// delivered and every worker goroutine has exited.
//
// If a task fails, panics or times out, or ctx is done, the remaining
// workers are stopped, queued tasks are dropped and Run returns an error
// wrapping ErrBatchFailed. A renderer that ignores its context holds Run
// up for at most the stuck grace period.
func (p *Pool) Run(ctx context.Context, tasks []mandel.Task, deliver func(mandel.TaskResult)) error {
	n := p.Concurrency(len(tasks))
	if n == 0 {
		return nil
	}

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Every worker has at most one unread message, so sends never block.
	results := make(chan message, n)

	var wg sync.WaitGroup
	workers := make([]*worker, n)
	for i := range workers {
		w := &worker{id: i, in: make(chan mandel.Task, 1)}
		workers[i] = w

		wg.Add(1)
		go p.work(wctx, w.id, w.in, results, &wg)
	}
	p.setLive(n)

	for i, w := range workers {
		w.assign(tasks[i])
	}
	queue := make([]mandel.Task, len(tasks)-n)
	copy(queue, tasks[n:])

	stop := func(err error) error {
		cancel()
		for _, w := range workers {
			w.retire()
		}
		wg.Wait()
		p.setLive(0)
		return err
	}

	live := n
	for live > 0 {
		select {
		case msg := <-results:
			w := workers[msg.worker]
			if msg.err != nil {
				return stop(fmt.Errorf("%w: worker %d: %w", ErrBatchFailed, w.id, msg.err))
			}
			w.state = idle

			p.completed.Add(1)
			deliver(msg.res)

			if len(queue) > 0 {
				next := queue[0]
				queue = queue[1:]
				w.assign(next)
				continue
			}

			w.retire()
			live--
			p.setLive(live)

		case <-ctx.Done():
			return stop(fmt.Errorf("%w: %w", ErrBatchFailed, context.Cause(ctx)))
		}
	}

	wg.Wait()
	return nil
}

func (p *Pool) setLive(n int) {
	p.live.Store(int32(n))
	if p.onWorkers != nil {
		p.onWorkers(n)
	}
}

// work is the worker goroutine. It exits when in is closed.
func (p *Pool) work(ctx context.Context, id int, in <-chan mandel.Task, results chan<- message, wg *sync.WaitGroup) {
	defer wg.Done()

	for t := range in {
		res, err := p.renderOne(ctx, t)
		res.Seq = t.Seq
		results <- message{worker: id, res: res, err: err}
	}
}

// renderOne runs the renderer on its own goroutine so a call that ignores
// ctx can be abandoned.
func (p *Pool) renderOne(ctx context.Context, t mandel.Task) (mandel.TaskResult, error) {
	if p.taskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, p.taskTimeout, ErrTaskTimeout)
		defer cancel()
	}

	done := make(chan message, 1)
	go func() {
		var m message
		defer func() {
			if r := recover(); r != nil {
				m.err = fmt.Errorf("tile %s: panic: %v", t.Tile(), r)
			}
			done <- m
		}()
		m.res, m.err = p.renderer.RenderTile(ctx, t)
	}()

	var m message
	select {
	case m = <-done:
	case <-ctx.Done():
		grace := time.NewTimer(p.stuckGrace)
		defer grace.Stop()
		select {
		case m = <-done:
		case <-grace.C:
			return mandel.TaskResult{}, fmt.Errorf("tile %s: %w for %s after %w", t.Tile(), ErrRendererStuck, p.stuckGrace, context.Cause(ctx))
		}
	}

	if m.err != nil && errors.Is(context.Cause(ctx), ErrTaskTimeout) {
		return m.res, fmt.Errorf("tile %s: %w after %s", t.Tile(), ErrTaskTimeout, p.taskTimeout)
	}
	return m.res, m.err
}
