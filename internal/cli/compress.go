package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/voronoize/voronoize/pkg/imageio"
	"github.com/voronoize/voronoize/pkg/pipeline"
)

// timeResolution is the rounding applied to displayed durations.
const timeResolution = time.Millisecond

// compressOpts holds the command-line flags for the compress command.
type compressOpts struct {
	output        string
	ratio         float64
	adjacency     int
	colorspace    string
	binSize       float64
	weightScaled  bool
	paletteSize   int
	paletteMethod string
	refresh       bool
	noCache       bool
}

// newCompressCmd creates the compress command.
//
// With no image argument, an interactive picker lists the image files in the
// current directory. Flag values override config file defaults; remaining
// defaults come from the pipeline.
func newCompressCmd() *cobra.Command {
	var opts compressOpts

	cmd := &cobra.Command{
		Use:   "compress [image]",
		Short: "Compress an image into a Voronoi-cell rendition",
		Long: `Compress an image by merging similar adjacent pixel cells.

The image is modelled as a grid graph with one cell per pixel. The most
similar adjacent cells are merged greedily until the requested fraction of
edges remains, then every pixel is repainted with the colour of its nearest
surviving cell.

Examples:
  voronoize compress photo.png                       # Default 0.5 ratio
  voronoize compress photo.png -o small.png -r 0.1   # Aggressive compression
  voronoize compress photo.png --colorspace lab      # Perceptual merging
  voronoize compress photo.png --palette 16          # Snap to 16 colours
  voronoize compress                                 # Pick an image interactively`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompress(cmd, args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: <input>_voronoi.png)")
	cmd.Flags().Float64VarP(&opts.ratio, "ratio", "r", pipeline.DefaultRatio, "fraction of edges to keep, in (0,1]")
	cmd.Flags().IntVar(&opts.adjacency, "adjacency", pipeline.DefaultAdjacency, "pixel connectivity (4 or 8)")
	cmd.Flags().StringVar(&opts.colorspace, "colorspace", string(pipeline.DefaultColorspace), "colour distance space (rgb or lab)")
	cmd.Flags().Float64Var(&opts.binSize, "bin-size", pipeline.DefaultBinSize, "spatial index bin size in pixels")
	cmd.Flags().BoolVar(&opts.weightScaled, "weight-scaled", false, "scale merge scores by combined cell weight")
	cmd.Flags().IntVar(&opts.paletteSize, "palette", 0, "snap output to this many colours (0 = off)")
	cmd.Flags().StringVar(&opts.paletteMethod, "palette-method", "", "palette extraction (kmeans or dominant)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass the result cache")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching entirely")

	return cmd
}

func runCompress(cmd *cobra.Command, args []string, opts *compressOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	input, err := resolveInput(args)
	if err != nil {
		return err
	}

	popts := cfg.pipelineOptions()
	flagOverrides(cmd, opts, &popts)
	popts.Refresh = opts.refresh
	popts.Logger = logger

	runner, err := newRunner(ctx, cfg, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	output := opts.output
	if output == "" {
		output = defaultOutputPath(input)
	}

	prog := newProgress(logger)
	res, err := runner.Execute(ctx, input, popts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Compressed %dx%d image", res.Stats.Width, res.Stats.Height))

	cs := imageio.Colorspace(popts.Colorspace)
	if err := imageio.Save(res.Output, output, cs); err != nil {
		return err
	}

	printSuccess("Compressed %s", input)
	printFile(output)
	printStats(res.Stats.CellCount, res.Stats.Merges, res.CacheInfo.Hit)
	if !res.CacheInfo.Hit {
		printDetail("build %s · contract %s · rasterize %s",
			res.Stats.BuildTime.Round(timeResolution),
			res.Stats.ContractTime.Round(timeResolution),
			res.Stats.RasterTime.Round(timeResolution))
	}
	printNextStep("Inspect the cell graph", fmt.Sprintf("voronoize graph %s -r %g", input, popts.Ratio))

	return nil
}

// flagOverrides applies explicitly-set flags on top of config defaults.
func flagOverrides(cmd *cobra.Command, opts *compressOpts, popts *pipeline.Options) {
	f := cmd.Flags()
	if f.Changed("ratio") || popts.Ratio == 0 {
		popts.Ratio = opts.ratio
	}
	if f.Changed("adjacency") || popts.Adjacency == 0 {
		popts.Adjacency = opts.adjacency
	}
	if f.Changed("colorspace") || popts.Colorspace == "" {
		popts.Colorspace = opts.colorspace
	}
	if f.Changed("bin-size") || popts.BinSize == 0 {
		popts.BinSize = opts.binSize
	}
	if f.Changed("weight-scaled") {
		popts.WeightScaled = opts.weightScaled
	}
	if f.Changed("palette") {
		popts.PaletteSize = opts.paletteSize
	}
	if f.Changed("palette-method") {
		popts.PaletteMethod = opts.paletteMethod
	}
}

// resolveInput returns the image argument, falling back to the interactive
// picker when none was given.
func resolveInput(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return pickImage(".")
}

// defaultOutputPath derives the output name from the input: photo.jpg
// becomes photo_voronoi.png. Output is always PNG so nothing is lost after
// the compression itself.
func defaultOutputPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_voronoi.png"
}
