package export

import (
	"strings"
	"testing"

	"github.com/voronoize/voronoize/pkg/cellgraph"
	"github.com/voronoize/voronoize/pkg/imageio"
)

func testGraph(t *testing.T) *cellgraph.Graph {
	t.Helper()
	g := cellgraph.New()
	a := g.NewCell([]float64{0, 0}, []float64{255, 0, 0}, 1)
	b := g.NewCell([]float64{0, 1}, []float64{0, 255, 0}, 2)
	c := g.NewCell([]float64{1, 0}, []float64{0, 0, 255}, 1)
	g.AddEdge(a, b)
	g.AddEdge(a, c)
	return g
}

func TestToDOTStructure(t *testing.T) {
	g := testGraph(t)
	dot := ToDOT(g, Options{Colorspace: imageio.ColorspaceRGB})

	if !strings.HasPrefix(dot, "graph cells {") {
		t.Errorf("DOT should declare an undirected graph, got prefix %q", dot[:20])
	}
	if !strings.Contains(dot, "layout=neato") {
		t.Error("DOT should request the neato layout for pinned positions")
	}

	// One node per cell, coloured by the cell colour.
	for _, want := range []string{"#ff0000", "#00ff00", "#0000ff"} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing node colour %s", want)
		}
	}

	// Each edge appears exactly once, lower ID first.
	if got := strings.Count(dot, " -- "); got != 2 {
		t.Errorf("DOT has %d edges, want 2", got)
	}
	if !strings.Contains(dot, "0 -- 1;") || !strings.Contains(dot, "0 -- 2;") {
		t.Errorf("DOT edges malformed:\n%s", dot)
	}
}

func TestToDOTPinsPositions(t *testing.T) {
	g := testGraph(t)
	dot := ToDOT(g, Options{Colorspace: imageio.ColorspaceRGB, Scale: 1})

	// Cell at (row=0, col=1) pins to x=1, y=0; row 1 flips to negative y.
	if !strings.Contains(dot, `pos="1.000,0.000!"`) {
		t.Errorf("DOT missing pinned position for (0,1):\n%s", dot)
	}
	if !strings.Contains(dot, `pos="0.000,-1.000!"`) {
		t.Errorf("DOT missing flipped position for (1,0):\n%s", dot)
	}
}

func TestToDOTDetailedLabels(t *testing.T) {
	g := testGraph(t)

	plain := ToDOT(g, Options{})
	if strings.Contains(plain, "w=") {
		t.Error("plain DOT should not include weight labels")
	}

	detailed := ToDOT(g, Options{Detailed: true})
	if !strings.Contains(detailed, `w=2`) {
		t.Errorf("detailed DOT missing weight label:\n%s", detailed)
	}
}

func TestToDOTEmptyGraph(t *testing.T) {
	g := cellgraph.New()
	dot := ToDOT(g, Options{})
	if !strings.HasPrefix(dot, "graph cells {") || !strings.HasSuffix(dot, "}\n") {
		t.Errorf("empty graph DOT malformed:\n%s", dot)
	}
}
