package mandel

import (
	"encoding/json"
	"errors"
	"image"
	"strings"
	"testing"
)

func TestSelectionNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    Selection
		want  Selection
		empty bool
	}{
		{"ordered", Selection{1, 2, 30, 40}, Selection{1, 2, 30, 40}, false},
		{"inverted", Selection{30, 40, 1, 2}, Selection{1, 2, 30, 40}, false},
		{"clamped", Selection{-5, -5, 500, 500}, Selection{0, 0, 100, 50}, false},
		{"point", Selection{7, 7, 7, 7}, Selection{7, 7, 7, 7}, true},
		{"line", Selection{7, 7, 20, 7}, Selection{7, 7, 20, 7}, true},
		{"outside", Selection{120, 10, 150, 20}, Selection{100, 10, 100, 20}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Normalize(100, 50)
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if got.Empty() != tt.empty {
				t.Errorf("Empty() = %v", got.Empty())
			}
		})
	}
}

func TestParamsValidate(t *testing.T) {
	if err := (Params{TileWidth: 1, TileHeight: 1, MaxIterations: 1}).Validate(); err != nil {
		t.Error(err)
	}
	for _, p := range []Params{{0, 1, 1}, {1, 0, 1}, {1, 1, 0}} {
		if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
			t.Errorf("%+v: got %v", p, err)
		}
	}
}

func TestLookupRegion(t *testing.T) {
	r, err := LookupRegion("seahorse-valley")
	if err != nil || r != SeahorseValley {
		t.Errorf("got %+v, %v", r, err)
	}
	if _, err := LookupRegion("nowhere"); err == nil {
		t.Error("expected error")
	}
	names := RegionNames()
	if len(names) != 7 || names[0] != "elephant-valley" {
		t.Errorf("names %v", names)
	}
}

func TestTaskWireSchema(t *testing.T) {
	b, _ := ComputeBounds(Overview, 1)
	tk := NewTask(Tile{X0: 64, Y0: 0, W: 32, H: 16}, b, 128, 128, 256)
	tk.Seq = 3

	raw, err := json.Marshal(tk)
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{
		"surfaceInverseWidth", "surfaceInverseHeight", "tileOriginX", "tileOriginY",
		"tileWidth", "tileHeight", "maxIterations", "minRe", "maxRe", "minIm", "maxIm",
		"lengthRe", "lengthIm",
	} {
		if _, ok := fields[k]; !ok {
			t.Errorf("schema lacks %q", k)
		}
	}
	if len(fields) != 13 {
		t.Errorf("schema has %d fields: %s", len(fields), raw)
	}
	if strings.Contains(string(raw), "Seq") {
		t.Error("dispatch index leaked into schema")
	}
}

func TestCanvasDeliverTile(t *testing.T) {
	c := NewCanvas(4, 4)
	var blits []image.Rectangle
	c.OnTile = func(r image.Rectangle) { blits = append(blits, r) }

	pix := make([]byte, 4*2*2)
	for i := range pix {
		pix[i] = 200
	}
	c.DeliverTile(pix, 2, 2, 2, 2)

	img := c.Image()
	if got := img.RGBAAt(3, 3); got.R != 200 || got.A != 200 {
		t.Errorf("tile pixel %v", got)
	}
	if got := img.RGBAAt(0, 0); got.R != 0 || got.A != 255 {
		t.Errorf("background pixel %v", got)
	}
	if len(blits) != 1 || blits[0] != image.Rect(2, 2, 4, 4) {
		t.Errorf("blits %v", blits)
	}

	// The snapshot is a copy.
	img.Pix[0] = 42
	dst := make([]byte, len(img.Pix))
	c.CopyPix(dst)
	if dst[0] != 0 {
		t.Error("snapshot aliases canvas")
	}
}
