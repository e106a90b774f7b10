package clips

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/keagan/composer/internal/ffmpeg"
)

// Prober reads stream metadata for a media reference
type Prober interface {
	ProbeMedia(ctx context.Context, ref string) (*ffmpeg.MediaInfo, error)
}

// RegistryOptions tune a Registry
type RegistryOptions struct {
	// Concurrency bounds parallel probes. Values below 1 mean 4.
	Concurrency int
	Text        TextDefaults
}

// Registry accepts descriptor batches and holds the resulting clips in load
// order. It is safe for concurrent use.
type Registry struct {
	mu     sync.Mutex
	prober Prober
	logger zerolog.Logger
	opts   RegistryOptions

	media []Media
	texts []*TextClip
}

// NewRegistry creates an empty registry. A nil prober disables probing and
// every media clip keeps its zero metadata.
func NewRegistry(prober Prober, logger zerolog.Logger, opts RegistryOptions) *Registry {
	if opts.Concurrency < 1 {
		opts.Concurrency = 4
	}
	if opts.Text == (TextDefaults{}) {
		opts.Text = DefaultTextDefaults()
	}
	return &Registry{
		prober: prober,
		logger: logger.With().Str("component", "clips").Logger(),
		opts:   opts,
	}
}

// Load validates a batch, probes its media and registers every clip.
//
// The batch is all-or-nothing with respect to validation: if any descriptor
// is invalid nothing is registered. Probe failures are not errors; the clip
// is registered with unknown metadata instead. Clips are appended in
// descriptor order once every probe has settled.
func (r *Registry) Load(ctx context.Context, descs []Descriptor) error {
	for i, d := range descs {
		if err := d.Validate(i); err != nil {
			return err
		}
	}

	type slot struct {
		media Media
		text  *TextClip
	}
	slots := make([]slot, len(descs))
	for i, d := range descs {
		if Kind(strings.ToLower(d.Type)) == KindText {
			slots[i].text = d.text(r.opts.Text)
		} else {
			slots[i].media = d.media()
		}
	}

	if r.prober != nil {
		var g errgroup.Group
		g.SetLimit(r.opts.Concurrency)
		for i := range slots {
			m := slots[i].media
			if m == nil {
				continue
			}
			g.Go(func() error {
				r.probe(ctx, m)
				return nil
			})
		}
		_ = g.Wait()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range slots {
		if s.text != nil {
			r.texts = append(r.texts, s.text)
			continue
		}
		switch c := s.media.(type) {
		case *VideoClip:
			c.InputIndex = len(r.media)
		case *AudioClip:
			c.InputIndex = len(r.media)
		}
		r.media = append(r.media, s.media)
	}

	r.logger.Debug().
		Int("batch", len(descs)).
		Int("media", len(r.media)).
		Int("texts", len(r.texts)).
		Msg("clips loaded")

	return nil
}

// probe fills the probed fields of one clip. Failures degrade to defaults.
func (r *Registry) probe(ctx context.Context, m Media) {
	info, err := r.prober.ProbeMedia(ctx, m.SourceRef())
	if err != nil {
		r.logger.Warn().Err(err).Str("source", m.SourceRef()).Msg("probe failed, using defaults")
		return
	}

	switch c := m.(type) {
	case *VideoClip:
		c.Rotation = info.Rotation
		c.HasAudio = info.HasAudio
		c.Width = info.Width
		c.Height = info.Height
		c.SourceDuration = info.Duration
	case *AudioClip:
		c.SourceDuration = info.Duration
	}

	cut := m.Timing()
	if info.Duration > 0 && cut.TrimEnd() > info.Duration {
		r.logger.Warn().
			Str("source", m.SourceRef()).
			Float64("trim_end", cut.TrimEnd()).
			Float64("source_duration", info.Duration).
			Msg("clip reads past the end of its source")
	}
}

// Media returns the registered media clips in load order
func (r *Registry) Media() []Media {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Media(nil), r.media...)
}

// Texts returns the registered text clips in load order
func (r *Registry) Texts() []*TextClip {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*TextClip(nil), r.texts...)
}

// Len is the total number of registered clips
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.media) + len(r.texts)
}

// Snapshot returns deep copies of every clip, so callers may rewrite
// sources without touching the registry
func (r *Registry) Snapshot() ([]Media, []*TextClip) {
	r.mu.Lock()
	defer r.mu.Unlock()

	media := make([]Media, len(r.media))
	for i, m := range r.media {
		media[i] = m.Clone()
	}
	texts := make([]*TextClip, len(r.texts))
	for i, t := range r.texts {
		texts[i] = t.Clone()
	}
	return media, texts
}
