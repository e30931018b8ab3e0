package mandel

import "context"

//go:generate go run github.com/marben/irpc/cmd/irpc

// Renderer computes the pixels of a single task. Implementations must not
// retain t or share the returned buffer.
//
// RenderTile must return soon after ctx is done. The pool gives up on a
// call that keeps running past that and fails the batch.
type Renderer interface {
	RenderTile(ctx context.Context, t Task) (TaskResult, error)
}
