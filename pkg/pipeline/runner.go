package pipeline

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/voronoize/voronoize/pkg/cache"
	"github.com/voronoize/voronoize/pkg/cellgraph"
	"github.com/voronoize/voronoize/pkg/contract"
	"github.com/voronoize/voronoize/pkg/errors"
	"github.com/voronoize/voronoize/pkg/imageio"
	"github.com/voronoize/voronoize/pkg/observability"
	"github.com/voronoize/voronoize/pkg/palette"
	"github.com/voronoize/voronoize/pkg/raster"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete pipeline on an image file.
func (r *Runner) Execute(ctx context.Context, path string, opts Options) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "image %s was not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return r.ExecuteBytes(ctx, data, opts)
}

// ExecuteBytes runs the complete build → contract → rasterize pipeline on
// encoded image bytes, with result caching keyed by the input hash and the
// option fingerprint.
func (r *Runner) ExecuteBytes(ctx context.Context, data []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := opts.Logger

	cs := imageio.Colorspace(opts.Colorspace)
	result := &Result{
		RunID:     uuid.NewString(),
		InputHash: cache.Hash(data),
	}
	cacheKey := r.Keyer.ResultKey(result.InputHash, opts.ResultKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if cached, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if out, err := decodeResult(cached, cs); err == nil {
				observability.Cache().OnCacheHit(ctx, "result")
				logger.Debug("result cache hit", "key", cacheKey)
				result.Output = out
				result.Encoded = cached
				result.Stats.Height = out.Height()
				result.Stats.Width = out.Width()
				result.CacheInfo.Hit = true
				return result, nil
			}
			// Undecodable entry; recompute and overwrite.
		}
		observability.Cache().OnCacheMiss(ctx, "result")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnsupportedFormat, err, "decode input image")
	}
	src, err := imageio.FromImage(img, cs)
	if err != nil {
		return nil, err
	}
	result.Stats.Height = src.Height()
	result.Stats.Width = src.Width()

	// Stage 1: Build the cell grid
	buildStart := time.Now()
	observability.Pipeline().OnBuildStart(ctx, src.Height(), src.Width())
	g, err := cellgraph.FromRaster(src, cellgraph.Adjacency(opts.Adjacency))
	result.Stats.BuildTime = time.Since(buildStart)
	observability.Pipeline().OnBuildComplete(ctx, safeCellCount(g), safeEdgeCount(g), result.Stats.BuildTime, err)
	if err != nil {
		return nil, err
	}

	logger.Info("built cell grid",
		"cells", g.CellCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.BuildTime)

	// Stage 2: Contract
	contractStart := time.Now()
	observability.Pipeline().OnContractStart(ctx, g.CellCount(), g.EdgeCount())
	cres, err := contract.Contract(ctx, g, contract.Options{
		Ratio:        opts.Ratio,
		WeightScaled: opts.WeightScaled,
	})
	result.Stats.ContractTime = time.Since(contractStart)
	observability.Pipeline().OnContractComplete(ctx, cres.Merges, g.EdgeCount(), result.Stats.ContractTime, err)
	if err != nil {
		return nil, err
	}
	result.Stats.InitialEdgeCount = cres.InitialEdges
	result.Stats.Merges = cres.Merges
	result.Stats.CellCount = g.CellCount()
	result.Stats.EdgeCount = g.EdgeCount()

	logger.Info("contracted cell graph",
		"merges", cres.Merges,
		"cells", g.CellCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.ContractTime)

	// Optional palette snap
	if opts.PaletteSize > 0 {
		var pal [][]float64
		switch palette.Method(opts.PaletteMethod) {
		case palette.MethodDominant:
			pal, err = palette.FromImage(img, opts.PaletteSize, cs)
		default:
			pal, err = palette.FromCells(g.Cells(), opts.PaletteSize)
		}
		if err != nil {
			return nil, err
		}
		if err := palette.Snap(g, pal); err != nil {
			return nil, err
		}
		logger.Info("snapped cells to palette",
			"method", opts.PaletteMethod,
			"colours", len(pal))
	}

	// Stage 3: Rasterize
	rasterStart := time.Now()
	observability.Pipeline().OnRasterizeStart(ctx, g.CellCount())
	idx, err := raster.BuildIndex(g, src.Height(), src.Width(), opts.BinSize)
	if err != nil {
		observability.Pipeline().OnRasterizeComplete(ctx, time.Since(rasterStart), err)
		return nil, err
	}
	out, err := raster.Fill(ctx, idx, src.Channels())
	result.Stats.RasterTime = time.Since(rasterStart)
	observability.Pipeline().OnRasterizeComplete(ctx, result.Stats.RasterTime, err)
	if err != nil {
		return nil, err
	}
	result.Output = out

	logger.Info("rasterized output",
		"height", out.Height(),
		"width", out.Width(),
		"duration", result.Stats.RasterTime)

	encoded, err := encodeResult(out, cs)
	if err != nil {
		return nil, err
	}
	result.Encoded = encoded

	if err := r.Cache.Set(ctx, cacheKey, encoded, cache.TTLResult); err == nil {
		observability.Cache().OnCacheSet(ctx, "result", len(encoded))
	}

	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// encodeResult serializes an output raster as PNG bytes. PNG is lossless in
// 8-bit RGB, so cached results round-trip byte-identical with saved files.
func encodeResult(out *imageio.Raster, cs imageio.Colorspace) ([]byte, error) {
	img, err := imageio.ToImage(out, cs)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode result png")
	}
	return buf.Bytes(), nil
}

// decodeResult turns cached PNG bytes back into a raster.
func decodeResult(data []byte, cs imageio.Colorspace) (*imageio.Raster, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode cached result")
	}
	return imageio.FromImage(img, cs)
}

func safeCellCount(g *cellgraph.Graph) int {
	if g == nil {
		return 0
	}
	return g.CellCount()
}

func safeEdgeCount(g *cellgraph.Graph) int {
	if g == nil {
		return 0
	}
	return g.EdgeCount()
}
