package clips

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keagan/composer/internal/ffmpeg"
)

type fakeProber struct {
	mu    sync.Mutex
	info  map[string]*ffmpeg.MediaInfo
	delay map[string]time.Duration
	calls []string
}

func (f *fakeProber) ProbeMedia(ctx context.Context, ref string) (*ffmpeg.MediaInfo, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ref)
	d := f.delay[ref]
	info, ok := f.info[ref]
	f.mu.Unlock()

	if d > 0 {
		time.Sleep(d)
	}
	if !ok {
		return nil, errors.New("no such file")
	}
	return info, nil
}

func video(src string, pos, end float64) Descriptor {
	return Descriptor{Type: "video", Source: src, Position: TC(pos), End: TC(end)}
}

func TestLoadAssignsIndexesInDescriptorOrder(t *testing.T) {
	prober := &fakeProber{
		info: map[string]*ffmpeg.MediaInfo{
			"slow.mp4": {Duration: 20, Width: 1920, Height: 1080, HasAudio: true},
			"fast.mp4": {Duration: 20, Width: 1280, Height: 720, Rotation: 90},
			"song.mp3": {Duration: 200, HasAudio: true},
		},
		delay: map[string]time.Duration{"slow.mp4": 30 * time.Millisecond},
	}
	r := NewRegistry(prober, zerolog.Nop(), RegistryOptions{Concurrency: 3})

	err := r.Load(context.Background(), []Descriptor{
		video("slow.mp4", 0, 5),
		{Type: "text", Text: "title", Position: TC(0), End: TC(2)},
		video("fast.mp4", 5, 8),
		{Type: "audio", Source: "song.mp3", Position: TC(0), End: TC(8)},
	})
	require.NoError(t, err)

	media := r.Media()
	require.Len(t, media, 3)
	assert.Equal(t, "slow.mp4", media[0].SourceRef())
	assert.Equal(t, 0, media[0].LoadIndex())
	assert.Equal(t, "fast.mp4", media[1].SourceRef())
	assert.Equal(t, 1, media[1].LoadIndex())
	assert.Equal(t, "song.mp3", media[2].SourceRef())
	assert.Equal(t, 2, media[2].LoadIndex())

	slow := media[0].(*VideoClip)
	assert.True(t, slow.HasAudio)
	assert.Equal(t, 1920, slow.Width)
	assert.False(t, slow.NeedsRotation())

	fast := media[1].(*VideoClip)
	assert.Equal(t, 90, fast.Rotation)
	assert.True(t, fast.NeedsRotation())

	assert.Equal(t, 200.0, media[2].(*AudioClip).SourceDuration)

	require.Len(t, r.Texts(), 1)
	assert.Equal(t, 4, r.Len())
	assert.Len(t, prober.calls, 3)
}

func TestLoadProbeFailureDegrades(t *testing.T) {
	prober := &fakeProber{info: map[string]*ffmpeg.MediaInfo{
		"ok.mp4": {Width: 640, Height: 360, HasAudio: true},
	}}
	r := NewRegistry(prober, zerolog.Nop(), RegistryOptions{})

	err := r.Load(context.Background(), []Descriptor{
		video("missing.mp4", 0, 2),
		video("ok.mp4", 2, 4),
	})
	require.NoError(t, err)

	media := r.Media()
	require.Len(t, media, 2)

	missing := media[0].(*VideoClip)
	assert.Equal(t, 0, missing.Rotation)
	assert.False(t, missing.HasAudio)
	assert.Equal(t, 0, missing.Width)
	assert.Equal(t, 0, missing.Height)

	ok := media[1].(*VideoClip)
	assert.True(t, ok.HasAudio)
	assert.Equal(t, 640, ok.Width)
}

func TestLoadRejectsWholeBatch(t *testing.T) {
	prober := &fakeProber{}
	r := NewRegistry(prober, zerolog.Nop(), RegistryOptions{})

	err := r.Load(context.Background(), []Descriptor{
		video("a.mp4", 0, 2),
		video("b.mp4", 4, 3),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidClipDescriptor)

	var ide *InvalidDescriptorError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, 1, ide.Index)

	assert.Equal(t, 0, r.Len())
	assert.Empty(t, prober.calls)
}

func TestLoadAppendsAcrossBatches(t *testing.T) {
	r := NewRegistry(nil, zerolog.Nop(), RegistryOptions{})

	require.NoError(t, r.Load(context.Background(), []Descriptor{video("a.mp4", 0, 1)}))
	require.NoError(t, r.Load(context.Background(), []Descriptor{video("b.mp4", 1, 2)}))

	media := r.Media()
	require.Len(t, media, 2)
	assert.Equal(t, 1, media[1].LoadIndex())
}

func TestLoadHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRegistry(&fakeProber{}, zerolog.Nop(), RegistryOptions{})
	err := r.Load(ctx, []Descriptor{video("a.mp4", 0, 1)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, r.Len())
}

func TestSnapshotIsIndependent(t *testing.T) {
	r := NewRegistry(nil, zerolog.Nop(), RegistryOptions{})
	require.NoError(t, r.Load(context.Background(), []Descriptor{
		video("a.mp4", 0, 1),
		{Type: "text", Text: "x", Position: TC(0), End: TC(1)},
	}))

	media, texts := r.Snapshot()
	media[0].(*VideoClip).Source = "/tmp/unrotated.mp4"
	texts[0].Text = "changed"

	assert.Equal(t, "a.mp4", r.Media()[0].SourceRef())
	assert.Equal(t, "x", r.Texts()[0].Text)
}
