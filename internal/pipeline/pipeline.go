package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/keagan/composer/internal/clips"
	"github.com/keagan/composer/internal/config"
	"github.com/keagan/composer/internal/ffmpeg"
	"github.com/keagan/composer/internal/timeline"
	"github.com/keagan/composer/pkg/util"
)

// Composer is one composition: a fixed canvas, the clips loaded into it and
// the ffmpeg collaborators that probe and render them
type Composer struct {
	logger     zerolog.Logger
	config     *Config
	registry   *clips.Registry
	renderer   Renderer
	normalizer *Normalizer
}

// New creates an empty composition. A nil prober skips probing; every clip
// then renders with unknown metadata.
func New(logger zerolog.Logger, cfg *Config, prober clips.Prober, renderer Renderer) *Composer {
	if cfg == nil {
		cfg = &Config{Canvas: clips.DefaultCanvas(), Workers: 4}
	}
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	if cfg.Canvas == (clips.Canvas{}) {
		cfg.Canvas = clips.DefaultCanvas()
	}

	return &Composer{
		logger: logger.With().Str("component", "pipeline").Logger(),
		config: cfg,
		registry: clips.NewRegistry(prober, logger, clips.RegistryOptions{
			Concurrency: cfg.Workers,
			Text:        cfg.Text,
		}),
		renderer:   renderer,
		normalizer: NewNormalizer(renderer, logger, cfg.Workers),
	}
}

// NewFromConfig wires a composition to a real ffmpeg executor
func NewFromConfig(logger zerolog.Logger, appCfg *config.Config, cfg *Config) (*Composer, error) {
	if cfg == nil {
		cfg = ConfigFrom(appCfg)
	}

	exec, err := ffmpeg.New(logger, ffmpeg.Options{
		FFmpegPath:  appCfg.FFmpeg.BinaryPath,
		FFprobePath: appCfg.FFmpeg.ProbePath,
		Threads:     appCfg.FFmpeg.Threads,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	return New(logger, cfg, exec, exec), nil
}

// Canvas returns the composition's canvas
func (c *Composer) Canvas() clips.Canvas {
	return c.config.Canvas
}

// Load validates, probes and registers a batch of clip descriptors
func (c *Composer) Load(ctx context.Context, descs []clips.Descriptor) error {
	c.logger.Info().Int("clips", len(descs)).Msg("loading clips")
	return c.registry.Load(ctx, descs)
}

// Plan compiles the current clips without touching any file
func (c *Composer) Plan() (*timeline.Plan, error) {
	media, texts := c.registry.Snapshot()
	return timeline.Compile(c.config.Canvas, media, texts)
}

// Compile assembles the render command without re-encoding or rendering.
// Rotated sources appear as-is.
func (c *Composer) Compile(ctx context.Context, opts ExportOptions) (*ffmpeg.Command, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	media, texts := c.registry.Snapshot()
	plan, err := timeline.Compile(c.config.Canvas, media, texts)
	if err != nil {
		return nil, err
	}
	return timeline.Assemble(plan, media, c.outputPath(opts)), nil
}

// Export renders the composition and returns the output path.
//
// Rotated sources are re-encoded into a scratch directory that is removed
// once the render settles, whether it succeeded or not.
func (c *Composer) Export(ctx context.Context, opts ExportOptions) (string, error) {
	output := c.outputPath(opts)
	start := time.Now()

	c.logger.Info().
		Str("output", output).
		Int("clips", c.registry.Len()).
		Msg("starting export")

	// Stage 1: compile from a private copy of the clips
	media, texts := c.registry.Snapshot()
	plan, err := timeline.Compile(c.config.Canvas, media, texts)
	if err != nil {
		return "", err
	}

	c.logger.Debug().Int("stages", plan.Graph.Len()).Msg("timeline compiled")

	// Stage 2: scratch space for rotation copies
	cleanup, err := NewCleanup(c.config.TempDir, c.logger)
	if err != nil {
		return "", err
	}
	defer cleanup.Run()

	// Stage 3: bake rotation into rotated sources
	if err := c.normalizer.Normalize(ctx, media, cleanup); err != nil {
		return "", err
	}

	// Stage 4: render
	cmd := timeline.Assemble(plan, media, output)
	c.logger.Debug().Str("cmd", cmd.String()).Msg("render command")

	if err := c.renderer.Execute(ctx, cmd); err != nil {
		return "", err
	}

	c.logger.Info().
		Str("output", output).
		Str("elapsed", util.FormatDuration(time.Since(start))).
		Msg("export complete")
	return output, nil
}

func (c *Composer) outputPath(opts ExportOptions) string {
	if opts.OutputPath != "" {
		return opts.OutputPath
	}
	if c.config.OutputPath != "" {
		return c.config.OutputPath
	}
	return timeline.DefaultOutput
}
