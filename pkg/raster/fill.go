package raster

import (
	"context"
	"runtime"
	"sync"

	"github.com/voronoize/voronoize/pkg/errors"
	"github.com/voronoize/voronoize/pkg/imageio"
)

// Fill produces the output raster: every pixel of the index's height × width
// plane takes the colour of its nearest cell.
//
// The pass is read-only over the frozen index, so rows are partitioned
// across one worker per CPU with no coordination beyond the final join;
// each worker writes a disjoint row range. Cancellation is observed between
// rows, never splitting a pixel.
func Fill(ctx context.Context, idx *Index, channels int) (*imageio.Raster, error) {
	out, err := imageio.NewRaster(idx.height, idx.width, channels)
	if err != nil {
		return nil, err
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > idx.height {
		workers = idx.height
	}

	var wg sync.WaitGroup
	errs := make([]error, workers)
	rowsPer := (idx.height + workers - 1) / workers

	for w := 0; w < workers; w++ {
		start := w * rowsPer
		end := start + rowsPer
		if end > idx.height {
			end = idx.height
		}
		wg.Add(1)
		go func(worker, start, end int) {
			defer wg.Done()
			errs[worker] = fillRows(ctx, idx, out, channels, start, end)
		}(w, start, end)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// fillRows fills rows [start, end) of out.
func fillRows(ctx context.Context, idx *Index, out *imageio.Raster, channels, start, end int) error {
	for row := start; row < end; row++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for col := 0; col < idx.width; col++ {
			c := idx.Nearest(float64(row), float64(col))
			if c == nil {
				return errors.New(errors.ErrCodeInternal, "no cell found for pixel (%d,%d)", row, col)
			}
			if len(c.Colour) != channels {
				return errors.New(errors.ErrCodeInternal,
					"cell %d has %d channels, raster has %d", c.ID(), len(c.Colour), channels)
			}
			out.Set(row, col, c.Colour)
		}
	}
	return nil
}
