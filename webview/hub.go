package webview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mandel "github.com/marben/mandelzoom"
)

// Controller receives viewer input. *session.Session implements it.
type Controller interface {
	Size() (w, h int)
	Params() mandel.Params
	Bounds() mandel.Bounds
	Select(ctx context.Context, sel mandel.Selection) error
	UpdateParams(ctx context.Context, p mandel.Params) error
	RequestReset(ctx context.Context) error
}

// outboxSize is how many messages a viewer may lag behind before it is dropped.
const outboxSize = 1024

type outgoing struct {
	typ  websocket.MessageType
	data []byte
}

type viewer struct {
	outbox    chan outgoing
	closeSlow func()
	slow      sync.Once
}

// dropSlow closes the viewer once, however many messages it missed.
func (v *viewer) dropSlow() {
	v.slow.Do(func() { go v.closeSlow() })
}

// Hub is a mandel.Compositor that composes tiles into a canvas and
// forwards them to every connected viewer.
type Hub struct {
	canvas *mandel.Canvas

	m       sync.Mutex
	viewers map[*viewer]struct{}
}

var (
	_ mandel.Compositor    = (*Hub)(nil)
	_ mandel.FrameObserver = (*Hub)(nil)
	_ mandel.ImgProvider   = (*Hub)(nil)
)

func NewHub(w, h int) *Hub {
	return &Hub{
		canvas:  mandel.NewCanvas(w, h),
		viewers: make(map[*viewer]struct{}),
	}
}

// DeliverTile implements mandel.Compositor.
func (h *Hub) DeliverTile(pix []byte, x, y, w, ht int) {
	h.canvas.DeliverTile(pix, x, y, w, ht)
	h.broadcast(outgoing{typ: websocket.MessageBinary, data: EncodeTile(pix, x, y, w, ht)})
}

// FrameStarted implements mandel.FrameObserver.
func (h *Hub) FrameStarted(f mandel.Frame) {
	h.broadcastJSON(Message{Type: TypeFrame, Frame: f.Seq, Tiles: f.Tiles, Bounds: windowOf(f.Bounds), Params: &f.Params})
}

// FrameFinished implements mandel.FrameObserver.
func (h *Hub) FrameFinished(f mandel.Frame, stats mandel.Stats, err error) {
	msg := Message{Type: TypeDone, Frame: f.Seq, Tiles: stats.Tiles, Workers: stats.Workers, RenderTime: stats.RenderTime()}
	if err != nil {
		msg.Error = err.Error()
	}
	h.broadcastJSON(msg)
}

// Image implements mandel.ImgProvider.
func (h *Hub) Image() *image.RGBA {
	return h.canvas.Image()
}

// Viewers returns the number of connected viewers.
func (h *Hub) Viewers() int {
	h.m.Lock()
	defer h.m.Unlock()
	return len(h.viewers)
}

func (h *Hub) broadcastJSON(msg Message) {
	b, err := json.Marshal(msg)
	if err != nil {
		log.Printf("webview: marshal %s: %v", msg.Type, err)
		return
	}
	h.broadcast(outgoing{typ: websocket.MessageText, data: b})
}

func (h *Hub) broadcast(o outgoing) {
	h.m.Lock()
	defer h.m.Unlock()

	for v := range h.viewers {
		select {
		case v.outbox <- o:
		default:
			v.dropSlow()
		}
	}
}

func (h *Hub) add(v *viewer) {
	h.m.Lock()
	h.viewers[v] = struct{}{}
	n := len(h.viewers)
	h.m.Unlock()

	log.Printf("viewers: %d", n)
}

func (h *Hub) remove(v *viewer) {
	h.m.Lock()
	delete(h.viewers, v)
	n := len(h.viewers)
	h.m.Unlock()

	log.Printf("viewers: %d", n)
}

// websocketHandler upgrades /ws requests and serves one viewer until it leaves.
func (h *Hub) websocketHandler(ctrl Controller, origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: origins,
		})
		if err != nil {
			log.Println(err)
			return
		}
		defer c.CloseNow()

		if err := h.serve(r.Context(), c, ctrl); err != nil && !isClosed(err) {
			log.Printf("viewer %s: %v", r.RemoteAddr, err)
		}
	}
}

func (h *Hub) serve(ctx context.Context, c *websocket.Conn, ctrl Controller) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	v := &viewer{
		outbox: make(chan outgoing, outboxSize),
		closeSlow: func() {
			c.Close(websocket.StatusPolicyViolation, "connection too slow to keep up with tiles")
		},
	}

	// Greet with the current state before joining broadcasts, then send
	// the composed image so a late viewer starts from the current frame.
	w, ht := ctrl.Size()
	p := ctrl.Params()
	if err := wsjson.Write(ctx, c, Message{Type: TypeHello, Width: w, Height: ht, Bounds: windowOf(ctrl.Bounds()), Params: &p}); err != nil {
		return fmt.Errorf("hello: %w", err)
	}
	h.add(v)
	defer h.remove(v)

	img := h.canvas.Image()
	r := img.Bounds()
	if err := c.Write(ctx, websocket.MessageBinary, EncodeTile(img.Pix, r.Min.X, r.Min.Y, r.Dx(), r.Dy())); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	errc := make(chan error, 1)
	go func() {
		errc <- h.readLoop(ctx, c, ctrl)
	}()

	for {
		select {
		case o := <-v.outbox:
			wctx, wcancel := context.WithTimeout(ctx, 10*time.Second)
			err := c.Write(wctx, o.typ, o.data)
			wcancel()
			if err != nil {
				return err
			}
		case err := <-errc:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *Hub) readLoop(ctx context.Context, c *websocket.Conn, ctrl Controller) error {
	for {
		var msg Message
		if err := wsjson.Read(ctx, c, &msg); err != nil {
			return err
		}
		if err := dispatch(ctx, ctrl, msg); err != nil {
			log.Printf("webview: %s: %v", msg.Type, err)
		}
	}
}

// dispatch turns one viewer message into a session event.
func dispatch(ctx context.Context, ctrl Controller, msg Message) error {
	switch msg.Type {
	case TypeSelect:
		if msg.Selection == nil {
			return errors.New("select without selection")
		}
		return ctrl.Select(ctx, *msg.Selection)
	case TypeParams:
		if msg.Params == nil {
			return errors.New("params without params")
		}
		if err := msg.Params.Validate(); err != nil {
			return err
		}
		return ctrl.UpdateParams(ctx, *msg.Params)
	case TypeReset:
		return ctrl.RequestReset(ctx)
	}
	return fmt.Errorf("unknown message type %q", msg.Type)
}

func isClosed(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}

// imageHandler serves the composed frame as PNG.
func (h *Hub) imageHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, h.canvas.Image()); err != nil {
		log.Printf("png: %v", err)
	}
}
