package ffmpeg

import (
	"fmt"
	"math"

	"github.com/keagan/composer/pkg/util"
)

// FilterBuilder accumulates one comma-separated filter chain. Numbers are
// written in their shortest round-trip form so the output is byte-stable.
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0, 8),
	}
}

// Trim keeps the video frames in [start, end) of the source
func (fb *FilterBuilder) Trim(start, end float64) *FilterBuilder {
	fb.filters = append(fb.filters, fmt.Sprintf("trim=start=%s:end=%s", num(start), num(end)))
	return fb
}

// ResetPTS restarts video timestamps at zero
func (fb *FilterBuilder) ResetPTS() *FilterBuilder {
	fb.filters = append(fb.filters, "setpts=PTS-STARTPTS")
	return fb
}

// ScaleFit scales down to fit inside width x height keeping aspect ratio
func (fb *FilterBuilder) ScaleFit(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters,
		fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", width, height))
	return fb
}

// PadCenter letterboxes the frame to width x height, centered
func (fb *FilterBuilder) PadCenter(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("pad=%d:%d:(ow-iw)/2:(oh-ih)/2", width, height))
	return fb
}

// SquarePixels sets the sample aspect ratio to 1:1
func (fb *FilterBuilder) SquarePixels() *FilterBuilder {
	fb.filters = append(fb.filters, "setsar=1")
	return fb
}

// FPS adds an fps filter
func (fb *FilterBuilder) FPS(fps float64) *FilterBuilder {
	if fps <= 0 {
		return fb
	}
	fb.filters = append(fb.filters, "fps="+num(fps))
	return fb
}

// Color generates a solid color source of the given size and duration
func (fb *FilterBuilder) Color(color string, width, height int, duration, rate float64) *FilterBuilder {
	f := fmt.Sprintf("color=c=%s:s=%dx%d:d=%s", color, width, height, num(duration))
	if rate > 0 {
		f += ":r=" + num(rate)
	}
	fb.filters = append(fb.filters, f)
	return fb
}

// Volume scales audio amplitude linearly
func (fb *FilterBuilder) Volume(gain float64) *FilterBuilder {
	fb.filters = append(fb.filters, "volume="+num(gain))
	return fb
}

// AudioTrim keeps the audio samples in [start, end) of the source
func (fb *FilterBuilder) AudioTrim(start, end float64) *FilterBuilder {
	fb.filters = append(fb.filters, fmt.Sprintf("atrim=start=%s:end=%s", num(start), num(end)))
	return fb
}

// AudioDelay delays both stereo channels by the given number of seconds
func (fb *FilterBuilder) AudioDelay(seconds float64) *FilterBuilder {
	ms := num(math.Round(seconds*1e6) / 1e3)
	fb.filters = append(fb.filters, fmt.Sprintf("adelay=%s|%s", ms, ms))
	return fb
}

// AudioResetPTS restarts audio timestamps at zero
func (fb *FilterBuilder) AudioResetPTS() *FilterBuilder {
	fb.filters = append(fb.filters, "asetpts=PTS-STARTPTS")
	return fb
}

// BuildAll returns a copy of the filters as a slice
func (fb *FilterBuilder) BuildAll() []string {
	return append([]string(nil), fb.filters...)
}

func num(f float64) string {
	return util.FormatSeconds(f)
}
