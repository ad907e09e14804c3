package contract

import (
	"context"
	"testing"

	"github.com/voronoize/voronoize/pkg/cellgraph"
	"github.com/voronoize/voronoize/pkg/errors"
	"github.com/voronoize/voronoize/pkg/imageio"
)

func rasterFromValues(t *testing.T, values [][]float64) *imageio.Raster {
	t.Helper()
	r, err := imageio.NewRaster(len(values), len(values[0]), 1)
	if err != nil {
		t.Fatal(err)
	}
	for row, cols := range values {
		for col, v := range cols {
			r.Set(row, col, []float64{v})
		}
	}
	return r
}

func uniformGraph(t *testing.T, h, w int, value float64) *cellgraph.Graph {
	t.Helper()
	values := make([][]float64, h)
	for i := range values {
		values[i] = make([]float64, w)
		for j := range values[i] {
			values[i][j] = value
		}
	}
	g, err := cellgraph.FromRaster(rasterFromValues(t, values), cellgraph.Conn4)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		ratio   float64
		wantErr bool
	}{
		{0.5, false},
		{1.0, false},
		{0.001, false},
		{0, true},
		{-0.1, true},
		{1.1, true},
	}

	for _, tt := range tests {
		err := Options{Ratio: tt.ratio}.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(ratio=%v) error = %v, wantErr %v", tt.ratio, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("ratio=%v: want INVALID_CONFIG, got %v", tt.ratio, err)
		}
	}
}

func TestRatioOneIsIdentity(t *testing.T) {
	g := uniformGraph(t, 4, 4, 200)
	res, err := Contract(context.Background(), g, Options{Ratio: 1.0})
	if err != nil {
		t.Fatal(err)
	}
	if res.Merges != 0 {
		t.Errorf("Merges = %d, want 0", res.Merges)
	}
	if g.CellCount() != 16 || g.EdgeCount() != 24 {
		t.Errorf("graph mutated under ratio=1: %d cells, %d edges", g.CellCount(), g.EdgeCount())
	}
}

func TestContractReachesTarget(t *testing.T) {
	// 4x4 uniform image, ratio 0.5: 24 initial edges, stop at <=12.
	g := uniformGraph(t, 4, 4, 200)
	res, err := Contract(context.Background(), g, Options{Ratio: 0.5})
	if err != nil {
		t.Fatal(err)
	}

	if res.InitialEdges != 24 || res.TargetEdges != 12 {
		t.Errorf("initial/target = %d/%d, want 24/12", res.InitialEdges, res.TargetEdges)
	}
	if g.EdgeCount() > 12 {
		t.Errorf("EdgeCount = %d, want <= 12", g.EdgeCount())
	}
	if res.FinalEdges != g.EdgeCount() {
		t.Errorf("FinalEdges = %d, graph has %d", res.FinalEdges, g.EdgeCount())
	}
	if g.TotalWeight() != 16 {
		t.Errorf("TotalWeight = %d, want 16", g.TotalWeight())
	}

	// Uniform input: every surviving cell still carries the original colour.
	for _, c := range g.Cells() {
		if c.Colour[0] != 200 {
			t.Errorf("cell %d colour = %v, want [200]", c.ID(), c.Colour)
		}
	}
}

func TestBrightCornerSurvives(t *testing.T) {
	// 2x2 image, bright top-left corner, three identical dark pixels.
	// The dark pixels are mutually closest (distance 0) and merge first.
	r, err := imageio.NewRaster(2, 2, 3)
	if err != nil {
		t.Fatal(err)
	}
	r.Set(0, 0, []float64{0, 0, 255})
	g, err := cellgraph.FromRaster(r, cellgraph.Conn4)
	if err != nil {
		t.Fatal(err)
	}

	res, err := Contract(context.Background(), g, Options{Ratio: 0.5})
	if err != nil {
		t.Fatal(err)
	}
	if res.Merges != 2 {
		t.Errorf("Merges = %d, want 2", res.Merges)
	}

	cells := g.Cells()
	if len(cells) != 2 {
		t.Fatalf("CellCount = %d, want 2", len(cells))
	}

	bright, dark := cells[0], cells[1]
	if bright.Weight != 1 || bright.Colour[2] != 255 {
		t.Errorf("bright corner cell = weight %d colour %v, want untouched", bright.Weight, bright.Colour)
	}
	if dark.Weight != 3 || dark.Colour[0] != 0 || dark.Colour[1] != 0 || dark.Colour[2] != 0 {
		t.Errorf("dark cell = weight %d colour %v, want merged trio", dark.Weight, dark.Colour)
	}
}

func TestEdgeMonotonicityDuringContraction(t *testing.T) {
	g := uniformGraph(t, 5, 5, 100)
	prev := g.EdgeCount()
	target := 4

	// Drive all the way down, verifying a strict edge decrease per merge
	// by contracting one step at a time.
	for g.EdgeCount() > target {
		res, err := Contract(context.Background(), g, Options{
			Ratio: float64(g.EdgeCount()-1) / float64(g.EdgeCount()),
		})
		if err != nil {
			t.Fatal(err)
		}
		if res.Merges == 0 {
			break
		}
		if g.EdgeCount() >= prev {
			t.Fatalf("edge count did not decrease: %d -> %d", prev, g.EdgeCount())
		}
		prev = g.EdgeCount()
	}
}

func TestDeterministicReplay(t *testing.T) {
	values := [][]float64{
		{10, 20, 30, 40},
		{50, 60, 70, 80},
		{15, 25, 35, 45},
	}

	run := func() []uint64 {
		g, err := cellgraph.FromRaster(rasterFromValues(t, values), cellgraph.Conn4)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Contract(context.Background(), g, Options{Ratio: 0.3}); err != nil {
			t.Fatal(err)
		}
		var ids []uint64
		for _, c := range g.Cells() {
			ids = append(ids, c.ID())
		}
		return ids
	}

	first, second := run(), run()
	if len(first) != len(second) {
		t.Fatalf("replay produced %d vs %d cells", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("replay diverged at cell %d: %d vs %d", i, first[i], second[i])
		}
	}
}

func TestWeightScaledPolicy(t *testing.T) {
	g := cellgraph.New()
	a := g.NewCell([]float64{0, 0}, []float64{0}, 1)
	b := g.NewCell([]float64{0, 1}, []float64{10}, 4)

	raw := Score(a, b, false)
	scaled := Score(a, b, true)
	if raw != 10 {
		t.Errorf("raw score = %v, want 10", raw)
	}
	if scaled != 50 {
		t.Errorf("weight-scaled score = %v, want 50 (10 * combined weight 5)", scaled)
	}
}

func TestContractCancellation(t *testing.T) {
	g := uniformGraph(t, 8, 8, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := Contract(ctx, g, Options{Ratio: 0.1}); err == nil {
		t.Error("contraction should observe context cancellation")
	}
}

func TestDisconnectedComponents(t *testing.T) {
	// Two separate 2-cell components. Contraction must not block once one
	// component runs out of edges.
	g := cellgraph.New()
	a := g.NewCell([]float64{0, 0}, []float64{0}, 1)
	b := g.NewCell([]float64{0, 1}, []float64{1}, 1)
	c := g.NewCell([]float64{5, 0}, []float64{100}, 1)
	d := g.NewCell([]float64{5, 1}, []float64{101}, 1)
	g.AddEdge(a, b)
	g.AddEdge(c, d)

	res, err := Contract(context.Background(), g, Options{Ratio: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	if g.EdgeCount() != 0 {
		t.Errorf("EdgeCount = %d, want 0", g.EdgeCount())
	}
	if res.Merges != 2 {
		t.Errorf("Merges = %d, want 2 (one per component)", res.Merges)
	}
	if g.CellCount() != 2 {
		t.Errorf("CellCount = %d, want 2", g.CellCount())
	}
}
