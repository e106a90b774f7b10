package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Environment overrides, applied after the file is read
const (
	EnvFFmpegPath  = "COMPOSER_FFMPEG_PATH"
	EnvFFprobePath = "COMPOSER_FFPROBE_PATH"
	EnvTempDir     = "COMPOSER_TEMP_DIR"
	EnvOutput      = "COMPOSER_OUTPUT"
	EnvAddr        = "COMPOSER_ADDR"
	EnvLogLevel    = "COMPOSER_LOG_LEVEL"
	EnvConcurrency = "COMPOSER_CONCURRENCY"
)

// Config holds all application configuration
type Config struct {
	TempDir     string `yaml:"temp_dir"`
	Concurrency int    `yaml:"concurrency"`
	LogLevel    string `yaml:"log_level"`
	LogJSON     bool   `yaml:"log_json"`

	Canvas CanvasConfig `yaml:"canvas"`
	Output OutputConfig `yaml:"output"`
	FFmpeg FFmpegConfig `yaml:"ffmpeg"`
	Text   TextConfig   `yaml:"text"`
	Server ServerConfig `yaml:"server"`
}

// CanvasConfig is the default composition canvas. Composition files may
// override it per render.
type CanvasConfig struct {
	Width  int     `yaml:"width"`
	Height int     `yaml:"height"`
	FPS    float64 `yaml:"fps"`
}

type OutputConfig struct {
	Path string `yaml:"path"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
}

// TextConfig holds defaults for text clips that omit font settings
type TextConfig struct {
	FontFile  string `yaml:"font_file"`
	FontSize  int    `yaml:"font_size"`
	FontColor string `yaml:"font_color"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads configuration from file or returns defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate rejects values no render could use
func (c *Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if c.Canvas.FPS <= 0 {
		return fmt.Errorf("canvas fps must be positive, got %v", c.Canvas.FPS)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Text.FontSize <= 0 {
		return fmt.Errorf("text font_size must be positive, got %d", c.Text.FontSize)
	}
	return nil
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		TempDir:     os.TempDir(),
		Concurrency: 4,
		LogLevel:    "info",
		Canvas: CanvasConfig{
			Width:  1920,
			Height: 1080,
			FPS:    30,
		},
		Output: OutputConfig{
			Path: "./output.mp4",
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
		},
		Text: TextConfig{
			FontFile:  "./fonts/Arial-Bold.ttf",
			FontSize:  100,
			FontColor: "black",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8790",
		},
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvFFmpegPath); v != "" {
		c.FFmpeg.BinaryPath = v
	}
	if v := os.Getenv(EnvFFprobePath); v != "" {
		c.FFmpeg.ProbePath = v
	}
	if v := os.Getenv(EnvTempDir); v != "" {
		c.TempDir = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		c.Output.Path = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvConcurrency); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvConcurrency, err)
		}
		c.Concurrency = n
	}
	return nil
}

func findConfigFile() string {
	candidates := []string{
		"./composer.yaml",
		"./composer.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".composer", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
