package worker

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"os/exec"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/marben/irpc"

	mandel "github.com/marben/mandelzoom"
	"github.com/marben/mandelzoom/render"
	"github.com/marben/mandelzoom/scheduler"
)

// The test binary doubles as a worker process when this is set.
const workerEnv = "MANDELZOOM_TEST_WORKER"

func TestMain(m *testing.M) {
	if os.Getenv(workerEnv) == "1" {
		if err := Serve(context.Background(), Stdio(), render.RendererImpl{}, 2); err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
			os.Exit(1)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

// connect serves r on one end of a pipe and returns a client on the other.
func connect(t *testing.T, r mandel.Renderer) *mandel.RendererIrpcClient {
	t.Helper()
	a, b := net.Pipe()

	served := make(chan error, 1)
	go func() { served <- Serve(context.Background(), b, r, 4) }()

	ep := irpc.NewEndpoint(a, irpc.WithParallelClientCalls(4))
	client, err := mandel.NewRendererIrpcClient(ep)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		ep.Close()
		select {
		case err := <-served:
			if err != nil {
				t.Errorf("Serve: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Serve still running after hangup")
		}
	})
	return client
}

func testTasks(t *testing.T, w, h, tile, maxIter int) []mandel.Task {
	t.Helper()
	b, err := mandel.ComputeBounds(mandel.Overview, float64(w)/float64(h))
	if err != nil {
		t.Fatal(err)
	}
	tiles, err := mandel.Partition(w, h, tile, tile)
	if err != nil {
		t.Fatal(err)
	}
	return mandel.NewTasks(tiles, b, w, h, maxIter)
}

func TestRemoteMatchesLocal(t *testing.T) {
	client := connect(t, render.RendererImpl{})
	ctx := context.Background()

	for _, task := range testTasks(t, 48, 32, 16, 64) {
		want, err := render.RendererImpl{}.RenderTile(ctx, task)
		if err != nil {
			t.Fatal(err)
		}
		got, err := client.RenderTile(ctx, task)
		if err != nil {
			t.Fatal(err)
		}
		if got.Seq != task.Seq || got.TileOriginX != want.TileOriginX || got.TileOriginY != want.TileOriginY ||
			got.TileWidth != want.TileWidth || got.TileHeight != want.TileHeight {
			t.Errorf("task %d: got %d@(%d,%d) %dx%d", task.Seq, got.Seq, got.TileOriginX, got.TileOriginY, got.TileWidth, got.TileHeight)
		}
		if !bytes.Equal(got.Pix, want.Pix) {
			t.Errorf("task %d: pixels differ", task.Seq)
		}
	}
}

func TestRemoteError(t *testing.T) {
	client := connect(t, render.RendererImpl{})

	task := testTasks(t, 16, 16, 16, 8)[0]
	task.MaxIterations = 0
	_, err := client.RenderTile(context.Background(), task)
	if err == nil || !strings.Contains(err.Error(), "bad task") {
		t.Fatalf("got %v, want the renderer's error", err)
	}
}

type blockingRenderer struct {
	started   chan struct{}
	cancelled chan struct{}
}

func (r blockingRenderer) RenderTile(ctx context.Context, t mandel.Task) (mandel.TaskResult, error) {
	close(r.started)
	<-ctx.Done()
	close(r.cancelled)
	return mandel.TaskResult{}, ctx.Err()
}

func TestRemoteCancel(t *testing.T) {
	r := blockingRenderer{started: make(chan struct{}), cancelled: make(chan struct{})}
	client := connect(t, r)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := client.RenderTile(ctx, testTasks(t, 8, 8, 8, 8)[0])
		errc <- err
	}()

	<-r.started
	cancel()

	select {
	case <-r.cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("remote renderer never saw the cancellation")
	}
	if err := <-errc; err == nil {
		t.Fatal("cancelled call succeeded")
	}
}

func TestPoolOverRemote(t *testing.T) {
	client := connect(t, render.RendererImpl{})
	p := scheduler.New(client, scheduler.WithMaxConcurrency(4))

	tasks := testTasks(t, 64, 64, 16, 32)
	var m sync.Mutex
	seen := make(map[int]int)
	err := p.Run(context.Background(), tasks, func(res mandel.TaskResult) {
		m.Lock()
		seen[res.Seq]++
		m.Unlock()
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != len(tasks) {
		t.Fatalf("delivered %d distinct tasks, want %d", len(seen), len(tasks))
	}
	for seq, n := range seen {
		if n != 1 {
			t.Errorf("task %d delivered %d times", seq, n)
		}
	}
}

func TestProcess(t *testing.T) {
	cmd := exec.Command(os.Args[0], "-test.run=^$")
	cmd.Env = append(os.Environ(), workerEnv+"=1")

	proc, err := Start(cmd, 2)
	if err != nil {
		t.Fatal(err)
	}

	task := testTasks(t, 32, 32, 32, 16)[0]
	want, err := render.RendererImpl{}.RenderTile(context.Background(), task)
	if err != nil {
		t.Fatal(err)
	}
	got, err := proc.RenderTile(context.Background(), task)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Error("pixels from the worker process differ")
	}

	task.MaxIterations = 0
	if _, err := proc.RenderTile(context.Background(), task); err == nil || !strings.Contains(err.Error(), "worker ") {
		t.Errorf("got %v, want an error naming the worker", err)
	}

	if err := proc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	select {
	case <-proc.Done():
	default:
		t.Error("Done still open after Close")
	}
	if _, err := proc.RenderTile(context.Background(), task); !errors.Is(err, irpc.ErrEndpointClosed) {
		t.Errorf("render after Close: got %v, want ErrEndpointClosed", err)
	}
}
