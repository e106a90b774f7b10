package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/keagan/composer/internal/clips"
	"github.com/keagan/composer/internal/ffmpeg"
	"github.com/keagan/composer/internal/pipeline"
	"github.com/keagan/composer/internal/timeline"
)

// maxBodyBytes bounds a composition request body
const maxBodyBytes = 4 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	logger := cfg.Logger.With().Str("component", "api").Logger()
	cfg.Logger = logger

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(logger))

	r.Get("/healthz", healthHandler(cfg))
	r.Post("/compile", compileHandler(cfg))
	r.Post("/export", exportHandler(cfg))

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			UptimeS: int64(time.Since(cfg.StartTime).Seconds()),
		})
	}
}

func compileHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}

		ctx := r.Context()
		composer := newComposer(cfg, req)
		if err := composer.Load(ctx, req.Clips); err != nil {
			writeComposeError(w, err)
			return
		}

		plan, err := composer.Plan()
		if err != nil {
			writeComposeError(w, err)
			return
		}
		cmd, err := composer.Compile(ctx, pipeline.ExportOptions{OutputPath: outputPath(cfg, req.Output)})
		if err != nil {
			writeComposeError(w, err)
			return
		}

		stages := make([]string, len(plan.Graph.Stages))
		for i, s := range plan.Graph.Stages {
			stages[i] = s.String()
		}

		WriteJSON(w, http.StatusOK, CompileResponse{
			Command: cmd.String(),
			Args:    cmd.Args(),
			Stages:  stages,
			Inputs:  cmd.Inputs,
			Maps:    cmd.Maps,
			Output:  cmd.Output,
		})
	}
}

func exportHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeRequest(w, r)
		if !ok {
			return
		}

		ctx := r.Context()
		composer := newComposer(cfg, req)
		if err := composer.Load(ctx, req.Clips); err != nil {
			writeComposeError(w, err)
			return
		}

		out, err := composer.Export(ctx, pipeline.ExportOptions{OutputPath: outputPath(cfg, req.Output)})
		if err != nil {
			cfg.Logger.Error().Err(err).Msg("export failed")
			writeComposeError(w, err)
			return
		}

		WriteJSON(w, http.StatusOK, ExportResponse{Output: out})
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request) (*ComposeRequest, bool) {
	var req ComposeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST", err.Error())
		return nil, false
	}
	if req.Canvas != nil && (req.Canvas.Width <= 0 || req.Canvas.Height <= 0 || req.Canvas.FPS <= 0) {
		WriteError(w, http.StatusBadRequest, "canvas width, height and fps must be positive", "BAD_REQUEST", "")
		return nil, false
	}
	if req.Output != "" && !filepath.IsLocal(req.Output) {
		WriteError(w, http.StatusBadRequest, "output must be a relative path inside the output directory", "BAD_REQUEST", req.Output)
		return nil, false
	}
	return &req, true
}

// outputPath places a requested output file next to the configured one.
// Requests never choose where the server writes beyond that directory.
func outputPath(cfg ServerConfig, requested string) string {
	if requested == "" {
		return ""
	}
	base := timeline.DefaultOutput
	if cfg.Pipeline != nil && cfg.Pipeline.OutputPath != "" {
		base = cfg.Pipeline.OutputPath
	}
	return filepath.Join(filepath.Dir(base), requested)
}

// newComposer builds a fresh composition per request from the server's
// base settings and the request's canvas override
func newComposer(cfg ServerConfig, req *ComposeRequest) *pipeline.Composer {
	pcfg := pipeline.Config{}
	if cfg.Pipeline != nil {
		pcfg = *cfg.Pipeline
	}
	if req.Canvas != nil {
		pcfg.Canvas = clips.Canvas{Width: req.Canvas.Width, Height: req.Canvas.Height, FPS: req.Canvas.FPS}
	}
	return pipeline.New(cfg.Logger, &pcfg, cfg.Prober, cfg.Renderer)
}

func writeComposeError(w http.ResponseWriter, err error) {
	var (
		reencodeErr *ffmpeg.ReencodeError
		renderErr   *ffmpeg.RenderError
	)

	switch {
	case errors.Is(err, clips.ErrInvalidClipDescriptor):
		WriteError(w, http.StatusBadRequest, err.Error(), "INVALID_DESCRIPTOR", "")
	case errors.Is(err, timeline.ErrNoVideoBase):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "NO_VIDEO_BASE", "")
	case errors.Is(err, timeline.ErrEmptyComposition):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), "EMPTY_COMPOSITION", "")
	case errors.As(err, &reencodeErr):
		WriteError(w, http.StatusBadGateway, "re-encode failed", "REENCODE_FAILED", reencodeErr.Error())
	case errors.As(err, &renderErr):
		WriteError(w, http.StatusBadGateway, "render failed", "RENDER_FAILED", renderErr.Diagnostic)
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR", "")
	}
}
