// Package contract implements the greedy graph-contraction phase of
// compression: repeatedly merging the most similar pair of adjacent cells
// until the edge count drops to a target fraction of the original.
//
// # Priority index
//
// Edges are kept in a binary heap keyed by similarity score. Scores are
// snapshots taken at insertion time: a merge invalidates the score of every
// edge incident to the new cell (its neighbourhood changes and its colour
// differs from either parent), so those edges are removed from the heap by
// identity and reinserted with freshly computed scores. The heap never
// re-sorts on cell mutation.
//
// # Determinism
//
// Ties on score break by the endpoint cell IDs (smaller pair first). Since
// cell IDs follow creation order, contraction is fully reproducible for a
// given graph construction history.
package contract

import (
	"context"
	"math"

	"github.com/voronoize/voronoize/pkg/cellgraph"
	"github.com/voronoize/voronoize/pkg/errors"
)

// Options configures a contraction run.
type Options struct {
	// Ratio is the target fraction of the initial edge count to retain,
	// in (0, 1]. Ratio 1 performs no merges.
	Ratio float64

	// WeightScaled multiplies the colour-distance score by the combined
	// endpoint weight, biasing merges toward small regions. Off by
	// default: raw colour distance is the canonical policy.
	WeightScaled bool
}

// Validate checks the options.
func (o Options) Validate() error {
	if o.Ratio <= 0 || o.Ratio > 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "ratio must be in (0,1], got %v", o.Ratio)
	}
	return nil
}

// Result reports what a contraction run did.
type Result struct {
	InitialEdges int // edge count before contraction
	TargetEdges  int // floor(ratio * initial)
	FinalEdges   int // edge count after contraction
	Merges       int // merges performed
}

// Contract merges the globally most similar adjacent cell pair until the
// graph's edge count is at most floor(ratio * initial). The graph is mutated
// in place. Contraction proceeds per-component automatically: the index is
// global, and a component with no remaining edges simply stops contributing
// candidates.
//
// Every merge strictly decreases the edge count, so the loop terminates in
// at most InitialEdges iterations; a merge that fails to do so aborts with
// INTERNAL_ERROR since it indicates broken neighbour de-duplication.
func Contract(ctx context.Context, g *cellgraph.Graph, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}

	res := Result{
		InitialEdges: g.EdgeCount(),
		TargetEdges:  int(math.Floor(opts.Ratio * float64(g.EdgeCount()))),
	}

	idx := newEdgeIndex(opts.WeightScaled)
	for _, c := range g.Cells() {
		for _, n := range c.Neighbours() {
			if c.ID() < n.ID() {
				idx.insert(c, n)
			}
		}
	}

	for g.EdgeCount() > res.TargetEdges {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		a, b, ok := idx.popMin()
		if !ok {
			// No candidates left; only possible if the target asked for
			// fewer edges than any spanning structure can shed.
			break
		}

		before := g.EdgeCount()

		// Drop every index entry whose key is about to go stale.
		for _, n := range a.Neighbours() {
			idx.remove(a, n)
		}
		for _, n := range b.Neighbours() {
			idx.remove(b, n)
		}

		merged, err := g.Merge(a, b)
		if err != nil {
			return res, err
		}
		if g.EdgeCount() >= before {
			return res, errors.New(errors.ErrCodeInternal,
				"merge did not decrease edge count (%d -> %d)", before, g.EdgeCount())
		}
		res.Merges++

		for _, n := range merged.Neighbours() {
			idx.insert(merged, n)
		}
	}

	res.FinalEdges = g.EdgeCount()
	return res, nil
}

// Score returns the similarity score the scheduler assigns to the edge
// (a, b): the Euclidean distance between the endpoint colours, optionally
// scaled by their combined weight. Lower scores merge sooner.
func Score(a, b *cellgraph.Cell, weightScaled bool) float64 {
	d := cellgraph.ColourDistance(a, b)
	if weightScaled {
		d *= float64(a.Weight + b.Weight)
	}
	return d
}
