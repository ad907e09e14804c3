// Package export renders a contracted cell graph for inspection.
//
// The DOT output pins each surviving cell at its weighted centroid and fills
// the node with the cell's averaged colour, which makes merge artifacts easy
// to spot before rasterization.
package export

import (
	"bytes"
	"context"
	"fmt"
	"math"

	"github.com/goccy/go-graphviz"

	"github.com/voronoize/voronoize/pkg/cellgraph"
	"github.com/voronoize/voronoize/pkg/errors"
	"github.com/voronoize/voronoize/pkg/imageio"
)

// Options configures cell graph rendering.
type Options struct {
	// Colorspace identifies the channel space the cell colours live in.
	Colorspace imageio.Colorspace

	// Detailed includes weight and position in node labels.
	// When false, nodes are unlabeled colour dots.
	Detailed bool

	// Scale converts cell positions (pixel units) to layout points.
	// Zero means the default of 0.05, which keeps typical images readable.
	Scale float64
}

// DefaultScale maps 20 pixels to one layout point.
const DefaultScale = 0.05

// ToDOT converts a cell graph to Graphviz DOT format. Nodes are pinned at
// their cell positions, so the drawing reproduces the spatial structure of
// the contracted image. The resulting DOT string can be rendered with
// [RenderSVG].
func ToDOT(g *cellgraph.Graph, opts Options) string {
	if opts.Scale == 0 {
		opts.Scale = DefaultScale
	}
	if opts.Colorspace == "" {
		opts.Colorspace = imageio.ColorspaceRGB
	}

	var buf bytes.Buffer
	buf.WriteString("graph cells {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fontsize=10];\n")
	buf.WriteString("\n")

	cells := g.Cells()
	for _, c := range cells {
		col := imageio.DecodeColor(c.Colour, opts.Colorspace)
		hex := fmt.Sprintf("#%02x%02x%02x", col.R, col.G, col.B)

		// DOT y grows upward; image rows grow downward.
		x := c.Position[1] * opts.Scale
		y := -c.Position[0] * opts.Scale

		label := ""
		if opts.Detailed {
			label = fmt.Sprintf("w=%d\\n(%.1f,%.1f)", c.Weight, c.Position[0], c.Position[1])
		}

		// Node area tracks cell weight so large merged regions stand out.
		width := 0.2 + 0.1*math.Sqrt(float64(c.Weight))

		fmt.Fprintf(&buf, "  %d [pos=\"%.3f,%.3f!\", fillcolor=%q, color=%q, label=%q, width=%.2f];\n",
			c.ID(), x, y, hex, hex, label, width)
	}

	buf.WriteString("\n")
	for _, c := range cells {
		for _, n := range c.Neighbours() {
			if c.ID() < n.ID() {
				fmt.Fprintf(&buf, "  %d -- %d;\n", c.ID(), n.ID())
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render SVG")
	}
	return buf.Bytes(), nil
}
