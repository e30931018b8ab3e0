package mandel

import (
	"errors"
	"fmt"
	"testing"
)

func TestPartitionCoversSurface(t *testing.T) {
	for _, w := range []int{1, 7, 64, 100, 257} {
		for _, h := range []int{1, 3, 64, 99} {
			for _, ts := range [][2]int{{1, 1}, {16, 16}, {64, 64}, {30, 7}, {300, 300}} {
				t.Run(fmt.Sprintf("%dx%d/%dx%d", w, h, ts[0], ts[1]), func(t *testing.T) {
					tiles, err := Partition(w, h, ts[0], ts[1])
					if err != nil {
						t.Fatal(err)
					}

					cols := (w + ts[0] - 1) / ts[0]
					rows := (h + ts[1] - 1) / ts[1]
					if len(tiles) != cols*rows {
						t.Fatalf("%d tiles, want %d", len(tiles), cols*rows)
					}

					cover := make([]int, w*h)
					for _, tl := range tiles {
						if tl.W <= 0 || tl.H <= 0 || tl.W > ts[0] || tl.H > ts[1] {
							t.Fatalf("bad tile %+v", tl)
						}
						for y := tl.Y0; y < tl.Y0+tl.H; y++ {
							for x := tl.X0; x < tl.X0+tl.W; x++ {
								cover[y*w+x]++
							}
						}
					}
					for i, c := range cover {
						if c != 1 {
							t.Fatalf("pixel (%d,%d) covered %d times", i%w, i/w, c)
						}
					}
				})
			}
		}
	}
}

func TestPartitionRowMajor(t *testing.T) {
	tiles, err := Partition(100, 50, 40, 20)
	if err != nil {
		t.Fatal(err)
	}
	want := []Tile{
		{0, 0, 40, 20}, {40, 0, 40, 20}, {80, 0, 20, 20},
		{0, 20, 40, 20}, {40, 20, 40, 20}, {80, 20, 20, 20},
		{0, 40, 40, 10}, {40, 40, 40, 10}, {80, 40, 20, 10},
	}
	if len(tiles) != len(want) {
		t.Fatalf("got %v", tiles)
	}
	for i := range want {
		if tiles[i] != want[i] {
			t.Errorf("tile %d = %v, want %v", i, tiles[i], want[i])
		}
	}
}

func TestPartitionInvalid(t *testing.T) {
	for _, args := range [][4]int{{10, 10, 0, 5}, {10, 10, 5, -1}, {0, 10, 5, 5}, {10, -3, 5, 5}} {
		if _, err := Partition(args[0], args[1], args[2], args[3]); !errors.Is(err, ErrInvalidTileSize) {
			t.Errorf("Partition%v: got %v", args, err)
		}
	}
}

func TestNewTasks(t *testing.T) {
	b, err := ComputeBounds(Overview, 2)
	if err != nil {
		t.Fatal(err)
	}
	tiles, _ := Partition(256, 128, 64, 64)
	tasks := NewTasks(tiles, b, 256, 128, 99)

	if len(tasks) != 8 {
		t.Fatalf("%d tasks", len(tasks))
	}
	for i, tk := range tasks {
		if tk.Seq != i || tk.Tile() != tiles[i] {
			t.Errorf("task %d: seq %d tile %v", i, tk.Seq, tk.Tile())
		}
		if tk.SurfaceInverseWidth != 1.0/256 || tk.SurfaceInverseHeight != 1.0/128 {
			t.Errorf("task %d: inverse size %v %v", i, tk.SurfaceInverseWidth, tk.SurfaceInverseHeight)
		}
		if tk.MaxIterations != 99 || tk.MinRe != b.MinRe || tk.LengthIm != b.LengthIm {
			t.Errorf("task %d: %+v", i, tk)
		}
	}
}
