package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Reencode writes src to dst with the default codecs. ffmpeg applies the
// source's display matrix while decoding, so dst carries the rotation
// baked into its pixels and no rotation metadata.
func (e *Executor) Reencode(ctx context.Context, src, dst string) error {
	if src == "" || dst == "" {
		return &ReencodeError{Source: src, Err: errors.New("source and destination are required")}
	}

	e.logger.Info().
		Str("source", src).
		Str("output", dst).
		Msg("re-encoding rotated source")

	args := []string{
		"-i", src,
		"-c:v", DefaultVideoCodec,
		"-crf", strconv.Itoa(DefaultCRF),
		"-preset", DefaultPreset,
		"-c:a", DefaultAudioCodec,
		dst,
	}

	runOpts := RunOptions{
		Args: args,
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("re-encode output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return &ReencodeError{
			Source:  src,
			Details: diagnostic(err),
			Err:     fmt.Errorf("ffmpeg: %w", err),
		}
	}

	e.logger.Info().Str("output", dst).Msg("re-encode complete")
	return nil
}
