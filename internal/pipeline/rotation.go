package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/keagan/composer/internal/clips"
	"github.com/keagan/composer/internal/ffmpeg"
)

// Normalizer bakes source rotation into pixels so every video input can be
// scaled the same way
type Normalizer struct {
	renderer Renderer
	logger   zerolog.Logger
	workers  int
}

// NewNormalizer creates a normalizer running at most workers re-encodes
// at once
func NewNormalizer(renderer Renderer, logger zerolog.Logger, workers int) *Normalizer {
	if workers < 1 {
		workers = 1
	}
	return &Normalizer{
		renderer: renderer,
		logger:   logger.With().Str("component", "rotation").Logger(),
		workers:  workers,
	}
}

// Normalize re-encodes every rotated video source into cleanup's directory
// and points the clips at the copies. Clips sharing a source share one
// copy. The first failure cancels the remaining re-encodes and is returned
// as *ffmpeg.ReencodeError.
//
// media is modified in place; pass a snapshot, never registry clips.
func (n *Normalizer) Normalize(ctx context.Context, media []clips.Media, cleanup *Cleanup) error {
	bySource := make(map[string][]*clips.VideoClip)
	var sources []string
	for _, m := range media {
		v, ok := m.(*clips.VideoClip)
		if !ok || !v.NeedsRotation() {
			continue
		}
		if _, seen := bySource[v.Source]; !seen {
			sources = append(sources, v.Source)
		}
		bySource[v.Source] = append(bySource[v.Source], v)
	}

	if len(sources) == 0 {
		return nil
	}

	n.logger.Info().Int("sources", len(sources)).Msg("normalizing rotated sources")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(n.workers)

	for _, src := range sources {
		src := src
		group := bySource[src]
		g.Go(func() error {
			dst := filepath.Join(cleanup.Dir(), fmt.Sprintf("unrotated-%s.mp4", uuid.NewString()))
			cleanup.Track(dst)

			n.logger.Debug().
				Str("source", src).
				Int("rotation", group[0].Rotation).
				Str("output", dst).
				Msg("re-encoding")

			if err := n.renderer.Reencode(gctx, src, dst); err != nil {
				var re *ffmpeg.ReencodeError
				if errors.As(err, &re) {
					return err
				}
				return &ffmpeg.ReencodeError{Source: src, Err: err}
			}

			for _, v := range group {
				v.Source = dst
				v.Rotation = 0
			}
			return nil
		})
	}

	return g.Wait()
}
