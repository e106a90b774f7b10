package pipeline

import (
	"context"

	"github.com/keagan/composer/internal/clips"
	"github.com/keagan/composer/internal/config"
	"github.com/keagan/composer/internal/ffmpeg"
)

// Renderer runs the two ffmpeg jobs an export needs
type Renderer interface {
	Reencode(ctx context.Context, src, dst string) error
	Execute(ctx context.Context, cmd *ffmpeg.Command) error
}

// ExportOptions configures one export
type ExportOptions struct {
	// OutputPath overrides the configured output file
	OutputPath string
}

// Config holds pipeline-specific configuration
type Config struct {
	Canvas     clips.Canvas
	Text       clips.TextDefaults
	TempDir    string
	OutputPath string
	// Workers bounds concurrent probes and re-encodes
	Workers int
}

// ConfigFrom derives pipeline settings from the application config
func ConfigFrom(appCfg *config.Config) *Config {
	return &Config{
		Canvas: clips.Canvas{
			Width:  appCfg.Canvas.Width,
			Height: appCfg.Canvas.Height,
			FPS:    appCfg.Canvas.FPS,
		},
		Text: clips.TextDefaults{
			FontFile:  appCfg.Text.FontFile,
			FontSize:  appCfg.Text.FontSize,
			FontColor: appCfg.Text.FontColor,
		},
		TempDir:    appCfg.TempDir,
		OutputPath: appCfg.Output.Path,
		Workers:    appCfg.Concurrency,
	}
}
