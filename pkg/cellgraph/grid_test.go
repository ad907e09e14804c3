package cellgraph

import (
	"testing"

	"github.com/voronoize/voronoize/pkg/imageio"
)

func uniformRaster(t *testing.T, h, w int, value float64) *imageio.Raster {
	t.Helper()
	r, err := imageio.NewRaster(h, w, 1)
	if err != nil {
		t.Fatal(err)
	}
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			r.Set(row, col, []float64{value})
		}
	}
	return r
}

func TestFromRasterConn4(t *testing.T) {
	r := uniformRaster(t, 4, 4, 200)
	g, err := FromRaster(r, Conn4)
	if err != nil {
		t.Fatal(err)
	}

	if g.CellCount() != 16 {
		t.Errorf("CellCount = %d, want 16", g.CellCount())
	}
	// 4x4 grid: 3 horizontal edges per row * 4 rows + same vertically = 24.
	if g.EdgeCount() != 24 {
		t.Errorf("EdgeCount = %d, want 24", g.EdgeCount())
	}
	if g.TotalWeight() != 16 {
		t.Errorf("TotalWeight = %d, want 16", g.TotalWeight())
	}
}

func TestFromRasterConn8(t *testing.T) {
	r := uniformRaster(t, 3, 3, 0)
	g, err := FromRaster(r, Conn8)
	if err != nil {
		t.Fatal(err)
	}

	// 3x3 grid: 12 orthogonal + 8 diagonal edges.
	if g.EdgeCount() != 20 {
		t.Errorf("EdgeCount = %d, want 20", g.EdgeCount())
	}

	// Corner cell has 3 neighbours, centre has 8.
	cells := g.Cells()
	if d := cells[0].Degree(); d != 3 {
		t.Errorf("corner degree = %d, want 3", d)
	}
	if d := cells[4].Degree(); d != 8 {
		t.Errorf("centre degree = %d, want 8", d)
	}
}

func TestFromRasterCellOrder(t *testing.T) {
	r := uniformRaster(t, 2, 3, 0)
	g, err := FromRaster(r, Conn4)
	if err != nil {
		t.Fatal(err)
	}

	cells := g.Cells()
	for i, c := range cells {
		wantRow, wantCol := float64(i/3), float64(i%3)
		if c.Position[0] != wantRow || c.Position[1] != wantCol {
			t.Errorf("cell %d at %v, want [%v %v]", i, c.Position, wantRow, wantCol)
		}
	}
}

func TestFromRasterInvalid(t *testing.T) {
	if _, err := FromRaster(nil, Conn4); err == nil {
		t.Error("nil raster should fail")
	}
	r := uniformRaster(t, 2, 2, 0)
	if _, err := FromRaster(r, Adjacency(6)); err == nil {
		t.Error("unsupported adjacency should fail")
	}
}

func TestFromRasterSinglePixel(t *testing.T) {
	r := uniformRaster(t, 1, 1, 42)
	g, err := FromRaster(r, Conn4)
	if err != nil {
		t.Fatal(err)
	}
	if g.CellCount() != 1 || g.EdgeCount() != 0 {
		t.Errorf("got %d cells, %d edges; want 1, 0", g.CellCount(), g.EdgeCount())
	}
}
