package webview

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mandel "github.com/marben/mandelzoom"
	"github.com/marben/mandelzoom/config"
)

func TestTileFrameRoundTrip(t *testing.T) {
	pix := make([]byte, 4*3*2)
	for i := range pix {
		pix[i] = byte(i)
	}
	b := EncodeTile(pix, 640, 128, 3, 2)
	if len(b) != headerSize+len(pix) {
		t.Fatalf("frame length %d", len(b))
	}

	res, err := DecodeTile(b)
	if err != nil {
		t.Fatal(err)
	}
	if res.TileOriginX != 640 || res.TileOriginY != 128 || res.TileWidth != 3 || res.TileHeight != 2 {
		t.Errorf("header %+v", res)
	}
	if !bytes.Equal(res.Pix, pix) {
		t.Error("pixels differ")
	}
}

func TestDecodeTileBad(t *testing.T) {
	if _, err := DecodeTile(make([]byte, 5)); !errors.Is(err, ErrBadFrame) {
		t.Errorf("short: %v", err)
	}
	b := EncodeTile(make([]byte, 4), 0, 0, 2, 2)
	if _, err := DecodeTile(b); !errors.Is(err, ErrBadFrame) {
		t.Errorf("truncated: %v", err)
	}
}

type fakeCtrl struct {
	selections chan mandel.Selection
	params     chan mandel.Params
	resets     chan struct{}
}

func newFakeCtrl() *fakeCtrl {
	return &fakeCtrl{
		selections: make(chan mandel.Selection, 4),
		params:     make(chan mandel.Params, 4),
		resets:     make(chan struct{}, 4),
	}
}

func (f *fakeCtrl) Size() (int, int) { return 8, 4 }
func (f *fakeCtrl) Params() mandel.Params {
	return mandel.Params{TileWidth: 4, TileHeight: 4, MaxIterations: 32}
}
func (f *fakeCtrl) Bounds() mandel.Bounds {
	b, _ := mandel.ComputeBounds(mandel.Overview, 2)
	return b
}
func (f *fakeCtrl) Select(_ context.Context, sel mandel.Selection) error {
	f.selections <- sel
	return nil
}
func (f *fakeCtrl) UpdateParams(_ context.Context, p mandel.Params) error {
	f.params <- p
	return nil
}
func (f *fakeCtrl) RequestReset(context.Context) error {
	f.resets <- struct{}{}
	return nil
}

func readJSON(t *testing.T, ctx context.Context, c *websocket.Conn) Message {
	t.Helper()
	typ, b, err := c.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("got %v message, want text", typ)
	}
	var msg Message
	if err := json.Unmarshal(b, &msg); err != nil {
		t.Fatal(err)
	}
	return msg
}

func readTile(t *testing.T, ctx context.Context, c *websocket.Conn) mandel.TaskResult {
	t.Helper()
	typ, b, err := c.Read(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if typ != websocket.MessageBinary {
		t.Fatalf("got %v message, want binary", typ)
	}
	res, err := DecodeTile(b)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestHubServesViewer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hub := NewHub(8, 4)
	ctrl := newFakeCtrl()
	srv := httptest.NewServer(NewServer(ctx, config.Listen{HTTP: "127.0.0.1:0"}, hub, ctrl, t.TempDir()).Handler)
	defer srv.Close()

	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.CloseNow()

	hello := readJSON(t, ctx, c)
	if hello.Type != TypeHello || hello.Width != 8 || hello.Height != 4 || hello.Params.MaxIterations != 32 {
		t.Fatalf("hello %+v", hello)
	}
	snap := readTile(t, ctx, c)
	if snap.TileWidth != 8 || snap.TileHeight != 4 {
		t.Fatalf("snapshot %+v", snap)
	}

	// Wait until the hub has registered the viewer before broadcasting.
	for hub.Viewers() != 1 {
		time.Sleep(time.Millisecond)
	}

	frame := mandel.Frame{Seq: 7, Tiles: 2}
	hub.FrameStarted(frame)
	if msg := readJSON(t, ctx, c); msg.Type != TypeFrame || msg.Frame != 7 || msg.Tiles != 2 {
		t.Errorf("frame %+v", msg)
	}

	pix := bytes.Repeat([]byte{9, 9, 9, 255}, 4*4)
	hub.DeliverTile(pix, 4, 0, 4, 4)
	tile := readTile(t, ctx, c)
	if tile.TileOriginX != 4 || !bytes.Equal(tile.Pix, pix) {
		t.Errorf("tile %+v", tile)
	}
	if got := hub.Image().RGBAAt(5, 1); got.R != 9 {
		t.Errorf("canvas pixel %v", got)
	}

	hub.FrameFinished(frame, mandel.Stats{Tiles: 2, Workers: 2, Elapsed: 1500 * time.Microsecond}, nil)
	if msg := readJSON(t, ctx, c); msg.Type != TypeDone || msg.RenderTime != "1.50ms" || msg.Workers != 2 {
		t.Errorf("done %+v", msg)
	}

	sel := mandel.Selection{StartX: 1, StartY: 1, EndX: 5, EndY: 3}
	if err := wsjson.Write(ctx, c, Message{Type: TypeSelect, Selection: &sel}); err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-ctrl.selections:
		if got != sel {
			t.Errorf("selection %+v", got)
		}
	case <-ctx.Done():
		t.Fatal("selection never arrived")
	}

	p := mandel.Params{TileWidth: 2, TileHeight: 2, MaxIterations: 8}
	if err := wsjson.Write(ctx, c, Message{Type: TypeParams, Params: &p}); err != nil {
		t.Fatal(err)
	}
	if got := <-ctrl.params; got != p {
		t.Errorf("params %+v", got)
	}

	if err := wsjson.Write(ctx, c, Message{Type: TypeReset}); err != nil {
		t.Fatal(err)
	}
	<-ctrl.resets

	c.Close(websocket.StatusNormalClosure, "")
	for hub.Viewers() != 0 {
		time.Sleep(time.Millisecond)
	}
}

func TestDispatchRejectsBadMessages(t *testing.T) {
	ctrl := newFakeCtrl()
	ctx := context.Background()
	for _, msg := range []Message{
		{Type: TypeSelect},
		{Type: TypeParams},
		{Type: TypeParams, Params: &mandel.Params{}},
		{Type: "zoom-out"},
	} {
		if err := dispatch(ctx, ctrl, msg); err == nil {
			t.Errorf("%+v accepted", msg)
		}
	}
	if len(ctrl.params) != 0 || len(ctrl.selections) != 0 {
		t.Error("bad messages reached the controller")
	}
}

func TestImageHandler(t *testing.T) {
	hub := NewHub(3, 2)
	rec := httptest.NewRecorder()
	hub.imageHandler(rec, httptest.NewRequest(http.MethodGet, "/image.png", nil))

	img, err := png.Decode(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 2 {
		t.Errorf("bounds %v", img.Bounds())
	}
}

func TestSlowViewerClosedOnce(t *testing.T) {
	hub := NewHub(4, 4)
	closed := make(chan struct{}, 100)
	var calls atomic.Int32
	v := &viewer{
		outbox: make(chan outgoing), // never drained
		closeSlow: func() {
			calls.Add(1)
			closed <- struct{}{}
		},
	}
	hub.add(v)

	pix := make([]byte, 4*2*2)
	for range 50 {
		hub.DeliverTile(pix, 0, 0, 2, 2)
	}

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("slow viewer never closed")
	}
	time.Sleep(20 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("closeSlow ran %d times, want 1", n)
	}
}

func TestOriginPolicy(t *testing.T) {
	for _, tc := range []struct {
		name    string
		origins []string
		origin  string
		ok      bool
	}{
		{"same host", nil, "", true},
		{"foreign rejected", nil, "http://evil.example", false},
		{"foreign allowed", []string{"evil.example"}, "http://evil.example", true},
		{"pattern", []string{"*.example"}, "https://viewer.example", true},
		{"pattern miss", []string{"*.example"}, "https://viewer.test", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			listen := config.Listen{HTTP: "127.0.0.1:0", Origins: tc.origins}
			srv := httptest.NewServer(NewServer(ctx, listen, NewHub(4, 4), newFakeCtrl(), t.TempDir()).Handler)
			defer srv.Close()

			opts := &websocket.DialOptions{HTTPHeader: http.Header{}}
			if tc.origin != "" {
				opts.HTTPHeader.Set("Origin", tc.origin)
			}
			c, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", opts)
			if tc.ok {
				if err != nil {
					t.Fatalf("dial: %v", err)
				}
				c.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err == nil {
				c.CloseNow()
				t.Fatal("foreign origin accepted")
			}
			if resp == nil || resp.StatusCode != http.StatusForbidden {
				t.Errorf("response %v, want 403", resp)
			}
		})
	}
}
