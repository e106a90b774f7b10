package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// stderrTailLines is how many diagnostic lines a failed run keeps
const stderrTailLines = 20

// Options locate the binaries and tune every run
type Options struct {
	// FFmpegPath and FFprobePath may be bare names resolved through PATH
	FFmpegPath  string
	FFprobePath string
	Threads     int
	// Progress, if set, receives every parsed progress block of a render
	Progress ProgressFunc
}

// Executor runs ffmpeg and ffprobe. It implements both the media probe
// and the renderer used by the composition pipeline.
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
	progress    ProgressFunc
}

// New resolves both binaries and returns an executor
func New(logger zerolog.Logger, opts Options) (*Executor, error) {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.FFprobePath == "" {
		opts.FFprobePath = "ffprobe"
	}

	ffmpegPath, err := exec.LookPath(opts.FFmpegPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found (%s): %w", opts.FFmpegPath, err)
	}

	ffprobePath, err := exec.LookPath(opts.FFprobePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found (%s): %w", opts.FFprobePath, err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     opts.Threads,
		progress:    opts.Progress,
	}, nil
}

// Run executes ffmpeg with the given arguments and streams progress.
// A non-zero exit is returned as *ProcessError carrying the stderr tail.
func (e *Executor) Run(ctx context.Context, opts RunOptions) error {
	if len(opts.Args) == 0 {
		return errors.New("no arguments provided")
	}

	// Global options must precede the first -i
	baseArgs := []string{"-y", "-hide_banner", "-loglevel", "info"}
	if e.threads > 0 {
		baseArgs = append(baseArgs, "-threads", fmt.Sprintf("%d", e.threads))
	}
	baseArgs = append(baseArgs, "-progress", "pipe:2")
	args := append(baseArgs, opts.Args...)

	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	var (
		wg   sync.WaitGroup
		tail []string
	)
	wg.Add(2)

	go func() {
		defer wg.Done()
		tail = streamOutput(stderr, opts.ProgressHandler, opts.LogHandler)
	}()

	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			if opts.LogHandler != nil {
				opts.LogHandler(scanner.Text())
			}
		}
	}()

	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &ProcessError{Err: ctxErr, Tail: tail}
		}
		return &ProcessError{Err: err, Tail: tail}
	}

	e.logger.Debug().Msg("ffmpeg execution completed")
	return nil
}

// streamOutput parses ffmpeg's -progress blocks, forwards every line to
// logHandler and returns the last diagnostic (non-progress) lines.
func streamOutput(r io.Reader, progressHandler ProgressFunc, logHandler func(string)) []string {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var tail []string
	progress := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()

		if logHandler != nil {
			logHandler(line)
		}

		key, value, ok := progressField(line)
		if !ok {
			if strings.TrimSpace(line) == "" {
				continue
			}
			tail = append(tail, line)
			if len(tail) > stderrTailLines {
				tail = tail[1:]
			}
			continue
		}

		switch key {
		case "frame":
			fmt.Sscanf(value, "%d", &progress.Frame)
		case "fps":
			fmt.Sscanf(value, "%f", &progress.FPS)
		case "bitrate":
			progress.Bitrate = value
		case "out_time":
			progress.Time = value
		case "out_time_us":
			fmt.Sscanf(value, "%d", &progress.OutTimeMicros)
		case "speed":
			progress.Speed = value
		case "progress":
			progress.Done = value == "end"
			if progressHandler != nil {
				progressHandler(progress)
			}
			progress = &Progress{}
		}
	}

	return tail
}

// progressField splits a "key=value" line emitted by -progress. Regular
// log lines contain spaces before any '=' and are rejected.
func progressField(line string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(line, "=")
	if !ok || key == "" || strings.ContainsAny(key, " \t[") {
		return "", "", false
	}
	return key, strings.TrimSpace(value), true
}
