package ffmpeg_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/keagan/composer/internal/ffmpeg"
)

// local helper (cannot use unexported ones from ffmpeg package)
func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not found in PATH - install with: brew install ffmpeg")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not found in PATH - install with: brew install ffmpeg")
	}
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil || !strings.Contains(string(out), "libx264") {
		t.Skip("ffmpeg build without libx264")
	}
}

// makeSource renders a short lavfi test pattern with a sine tone
func makeSource(t *testing.T, dir string, size string, seconds int) string {
	t.Helper()
	path := filepath.Join(dir, "src-"+size+".mp4")
	cmd := exec.Command("ffmpeg", "-y", "-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "testsrc=size="+size+":rate=25:duration="+strconv.Itoa(seconds),
		"-f", "lavfi", "-i", "sine=frequency=440:duration="+strconv.Itoa(seconds),
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-c:a", "aac", "-shortest", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to generate source: %v\n%s", err, out)
	}
	return path
}

func TestIntegration_ProbeReencodeExecute(t *testing.T) {
	skipIfNoFFmpeg(t)

	dir := t.TempDir()
	src := makeSource(t, dir, "320x240", 2)

	logger := zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}).With().Str("test", "integration_ffmpeg").Logger()

	var blocks int
	e, err := ffmpeg.New(logger, ffmpeg.Options{
		Threads:  2,
		Progress: func(*ffmpeg.Progress) { blocks++ },
	})
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	info, err := e.ProbeMedia(ctx, src)
	if err != nil {
		t.Fatalf("ProbeMedia failed: %v", err)
	}
	if info.Width != 320 || info.Height != 240 {
		t.Errorf("expected 320x240, got %dx%d", info.Width, info.Height)
	}
	if !info.HasAudio {
		t.Error("expected an audio stream")
	}
	if info.Rotation != 0 {
		t.Errorf("expected no rotation, got %d", info.Rotation)
	}

	copyPath := filepath.Join(dir, "copy.mp4")
	if err := e.Reencode(ctx, src, copyPath); err != nil {
		t.Fatalf("Reencode failed: %v", err)
	}

	out := filepath.Join(dir, "nested", "out.mp4")
	cmd := &ffmpeg.Command{
		Inputs: []string{copyPath},
		FilterGraph: "color=c=black:s=160x120:d=1:r=25,setsar=1[black0];" +
			"[0:v]" + strings.Join(ffmpeg.NewFilterBuilder().Trim(0, 1).ResetPTS().ScaleFit(160, 120).
			PadCenter(160, 120).SquarePixels().FPS(25).BuildAll(), ",") + "[v0];" +
			"[0:a]" + strings.Join(ffmpeg.NewFilterBuilder().Volume(1).AudioTrim(0, 1).AudioDelay(1).
			AudioResetPTS().BuildAll(), ",") + "[a0];" +
			"[black0][v0]concat=n=2:v=1:a=0[outv];" +
			"[a0]amix=inputs=1:duration=longest[outa]",
		Maps:      []string{"[outv]", "[outa]"},
		VideoArgs: ffmpeg.VideoEncoderArgs(),
		AudioArgs: ffmpeg.AudioEncoderArgs(),
		Output:    out,
	}
	if err := e.Execute(ctx, cmd); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	rendered, err := e.ProbeMedia(ctx, out)
	if err != nil {
		t.Fatalf("probe of render failed: %v", err)
	}
	if rendered.Width != 160 || rendered.Height != 120 {
		t.Errorf("expected 160x120, got %dx%d", rendered.Width, rendered.Height)
	}
	if rendered.Duration < 1.8 || rendered.Duration > 2.3 {
		t.Errorf("expected ~2s render, got %v", rendered.Duration)
	}
	if blocks == 0 {
		t.Error("expected at least one progress block")
	}
	t.Logf("rendered %s: %dx%d %.2fs", out, rendered.Width, rendered.Height, rendered.Duration)
}

func TestIntegration_RenderFailureCarriesDiagnostic(t *testing.T) {
	skipIfNoFFmpeg(t)

	e, err := ffmpeg.New(zerolog.Nop(), ffmpeg.Options{})
	if err != nil {
		t.Fatalf("failed to create executor: %v", err)
	}

	cmd := &ffmpeg.Command{
		Inputs:      []string{filepath.Join(t.TempDir(), "missing.mp4")},
		FilterGraph: "[0:v]null[outv]",
		Maps:        []string{"[outv]"},
		Output:      filepath.Join(t.TempDir(), "out.mp4"),
	}
	err = e.Execute(context.Background(), cmd)
	if err == nil {
		t.Fatal("expected render failure")
	}

	var rerr *ffmpeg.RenderError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RenderError, got %T: %v", err, err)
	}
	if rerr.Diagnostic == "" {
		t.Error("expected stderr diagnostic on render failure")
	}
}
