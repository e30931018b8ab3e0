// Package worker moves tile rendering out of process. A worker process
// serves a mandel.Renderer over irpc on its stdin/stdout; Process is the
// mandel.Renderer the scheduler uses on the other end.
package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strconv"

	"github.com/marben/irpc"

	mandel "github.com/marben/mandelzoom"
)

// Serve exposes r on conn until the counterpart hangs up or ctx is done.
// At most parallel tiles render at once.
func Serve(ctx context.Context, conn io.ReadWriteCloser, r mandel.Renderer, parallel int) error {
	ep := irpc.NewEndpoint(conn,
		irpc.WithParallelWorkers(parallel),
		irpc.WithEndpointServices(mandel.NewRendererIrpcService(r)),
	)

	select {
	case <-ep.Context().Done():
	case <-ctx.Done():
		ep.Close()
	}

	cause := context.Cause(ep.Context())
	if errors.Is(cause, irpc.ErrEndpointClosedByCounterpart) || ctx.Err() != nil {
		return nil
	}
	return cause
}

// Stdio joins the process's stdin and stdout into the connection Serve expects.
func Stdio() io.ReadWriteCloser {
	return pipe{ReadCloser: os.Stdin, WriteCloser: os.Stdout}
}

// pipe joins a read and a write stream into one connection.
type pipe struct {
	io.ReadCloser
	io.WriteCloser
}

func (p pipe) Close() error {
	return errors.Join(p.WriteCloser.Close(), p.ReadCloser.Close())
}

// Process is a running worker process.
type Process struct {
	cmd    *exec.Cmd
	ep     *irpc.Endpoint
	client *mandel.RendererIrpcClient
}

var _ mandel.Renderer = (*Process)(nil)

// Start runs cmd and connects to the renderer it serves on its stdio.
// parallel bounds the calls in flight, so it should match the pool's
// concurrency. cmd's stdin and stdout must be unset; its stderr defaults
// to ours so the worker's log lines show up.
func Start(cmd *exec.Cmd, parallel int) (*Process, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout: %w", err)
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start worker %s: %w", cmd.Path, err)
	}

	ep := irpc.NewEndpoint(pipe{ReadCloser: stdout, WriteCloser: stdin}, irpc.WithParallelClientCalls(parallel))
	client, err := mandel.NewRendererIrpcClient(ep)
	if err != nil {
		ep.Close()
		cmd.Wait()
		return nil, fmt.Errorf("renderer client: %w", err)
	}

	log.Printf("worker process %d started: %s", cmd.Process.Pid, cmd.Path)
	return &Process{cmd: cmd, ep: ep, client: client}, nil
}

// StartBinary starts the worker binary at path, asking it for parallel
// concurrent renders. The process is killed when ctx is done.
func StartBinary(ctx context.Context, path string, parallel int, args ...string) (*Process, error) {
	args = append([]string{"-parallel", strconv.Itoa(parallel)}, args...)
	return Start(exec.CommandContext(ctx, path, args...), parallel)
}

// RenderTile implements mandel.Renderer.
func (p *Process) RenderTile(ctx context.Context, t mandel.Task) (mandel.TaskResult, error) {
	res, err := p.client.RenderTile(ctx, t)
	if err != nil {
		return mandel.TaskResult{}, fmt.Errorf("worker %d: %w", p.cmd.Process.Pid, err)
	}
	return res, nil
}

// Done is closed when the connection to the worker ends.
func (p *Process) Done() <-chan struct{} {
	return p.ep.Context().Done()
}

// Close hangs up and waits for the worker to exit.
func (p *Process) Close() error {
	p.ep.Close()
	err := p.cmd.Wait()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && !exitErr.Exited() {
		// killed by a signal, usually cmd's context
		return nil
	}
	return err
}
