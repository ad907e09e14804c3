// Package api exposes the compression pipeline over HTTP.
//
// The API is deliberately small:
//
//	POST /compress  multipart image upload → compressed PNG
//	GET  /healthz   liveness probe
//
// Compression options arrive as query parameters and map onto
// [pipeline.Options]; results are cached by the shared Runner exactly as in
// the CLI.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/voronoize/voronoize/pkg/errors"
	"github.com/voronoize/voronoize/pkg/pipeline"
)

// MaxUploadBytes caps the accepted image size at 32 MiB.
const MaxUploadBytes = 32 << 20

// Server wires the pipeline runner into an HTTP handler.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
}

// NewServer creates an API server around a pipeline runner.
func NewServer(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, logger: logger}
}

// Handler builds the chi router with standard middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", s.handleHealth)
	r.Post("/compress", s.handleCompress)

	return r
}

// ListenAndServe runs the API until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(errors.ErrCodeNetwork, err, "serve %s", addr)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	opts, err := optionsFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Logger = s.logger

	data, err := readUpload(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.ExecuteBytes(r.Context(), data, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("compressed upload",
		"request_id", middleware.GetReqID(r.Context()),
		"run_id", res.RunID,
		"size", len(res.Encoded),
		"cache_hit", res.CacheInfo.Hit)

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Run-Id", res.RunID)
	w.Header().Set("X-Cache", cacheHeader(res.CacheInfo.Hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Encoded)
}

// readUpload extracts the image from a multipart "image" field, or the raw
// body for clients that post the bytes directly.
func readUpload(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse multipart form")
		}
		file, _, err := r.FormFile("image")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "missing image field")
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, MaxUploadBytes))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read upload")
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, MaxUploadBytes))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(data) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty request body")
	}
	return data, nil
}

// optionsFromQuery maps query parameters onto pipeline options.
// Validation happens inside the pipeline; this only parses.
func optionsFromQuery(r *http.Request) (pipeline.Options, error) {
	var opts pipeline.Options
	q := r.URL.Query()

	var err error
	if v := q.Get("ratio"); v != "" {
		if opts.Ratio, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse ratio %q", v)
		}
	}
	if v := q.Get("adjacency"); v != "" {
		if opts.Adjacency, err = strconv.Atoi(v); err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse adjacency %q", v)
		}
	}
	if v := q.Get("bin_size"); v != "" {
		if opts.BinSize, err = strconv.ParseFloat(v, 64); err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse bin_size %q", v)
		}
	}
	if v := q.Get("palette_size"); v != "" {
		if opts.PaletteSize, err = strconv.Atoi(v); err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse palette_size %q", v)
		}
	}
	opts.PaletteMethod = q.Get("palette_method")
	opts.Colorspace = q.Get("colorspace")
	opts.WeightScaled = q.Get("weight_scaled") == "true"
	opts.Refresh = q.Get("refresh") == "true"

	return opts, nil
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeUnsupportedFormat:
		status = http.StatusBadRequest
	case errors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	}

	s.logger.Warn("request failed",
		"request_id", middleware.GetReqID(r.Context()),
		"status", status,
		"error", err)

	writeJSON(w, status, errorResponse{
		Code:    string(code),
		Message: errors.UserMessage(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
