package cli

import (
	"github.com/spf13/cobra"

	"github.com/voronoize/voronoize/pkg/api"
)

// newServeCmd creates the serve command, which runs the compression HTTP API.
func newServeCmd() *cobra.Command {
	var (
		addr    string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the compression HTTP API",
		Long: `Run an HTTP server exposing the compression pipeline.

Endpoints:
  POST /compress   multipart image upload (field "image") → compressed PNG
  GET  /healthz    liveness probe

Compression options are passed as query parameters (ratio, adjacency,
colorspace, bin_size, palette_size, palette_method, weight_scaled, refresh).
The cache backend is taken from the config file, so several instances can
share a Redis or MongoDB cache.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			runner, err := newRunner(ctx, cfg, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			printInfo("Serving compression API on %s", addr)
			printNextStep("Try it", "curl -F image=@photo.png localhost"+addr+"/compress?ratio=0.3 -o out.png")

			return api.NewServer(runner, logger).ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable result caching")

	return cmd
}
