package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 1920, cfg.Canvas.Width)
	assert.Equal(t, 1080, cfg.Canvas.Height)
	assert.Equal(t, 30.0, cfg.Canvas.FPS)
	assert.Equal(t, "./output.mp4", cfg.Output.Path)
	assert.Equal(t, 100, cfg.Text.FontSize)
	assert.Equal(t, "black", cfg.Text.FontColor)
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composer.yaml")
	content := `
canvas:
  width: 1280
  height: 720
ffmpeg:
  threads: 2
text:
  font_file: /fonts/Inter-Bold.ttf
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1280, cfg.Canvas.Width)
	assert.Equal(t, 720, cfg.Canvas.Height)
	assert.Equal(t, 30.0, cfg.Canvas.FPS, "unset fields keep defaults")
	assert.Equal(t, 2, cfg.FFmpeg.Threads)
	assert.Equal(t, "ffmpeg", cfg.FFmpeg.BinaryPath)
	assert.Equal(t, "/fonts/Inter-Bold.ttf", cfg.Text.FontFile)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("canvas: [nope"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadRejectsInvalidCanvas(t *testing.T) {
	path := filepath.Join(t.TempDir(), "composer.yaml")
	require.NoError(t, os.WriteFile(path, []byte("canvas:\n  width: 0\n"), 0644))

	_, err := Load(path)
	require.ErrorContains(t, err, "canvas size")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvFFmpegPath, "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv(EnvOutput, "/tmp/render.mp4")
	t.Setenv(EnvConcurrency, "8")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "/opt/ffmpeg/bin/ffmpeg", cfg.FFmpeg.BinaryPath)
	assert.Equal(t, "/tmp/render.mp4", cfg.Output.Path)
	assert.Equal(t, 8, cfg.Concurrency)
}

func TestEnvConcurrencyMustBeNumeric(t *testing.T) {
	t.Setenv(EnvConcurrency, "many")

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorContains(t, err, EnvConcurrency)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yaml")
	cfg := Default()
	cfg.Canvas.Width = 640
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 640, loaded.Canvas.Width)
}

func TestContextCarrier(t *testing.T) {
	cfg := Default()
	cfg.Concurrency = 9
	ctx := WithConfig(context.Background(), cfg)

	assert.Same(t, cfg, FromContext(ctx))
	assert.Equal(t, 4, FromContext(context.Background()).Concurrency)
}
