// Package timeline turns registered clips into a filter graph and the
// ffmpeg command that renders it.
package timeline

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/keagan/composer/internal/clips"
	"github.com/keagan/composer/internal/ffmpeg"
	"github.com/keagan/composer/internal/graph"
	"github.com/keagan/composer/internal/overlays"
)

// Pad labels shared by the compiler and the assembler
const (
	LabelVideo     = "outv"
	LabelAudio     = "outa"
	LabelVideoText = "outVideoAndText"
)

// gapEpsilon absorbs float noise when comparing positions against the cursor
const gapEpsilon = 1e-6

var (
	// ErrEmptyComposition is returned when there is nothing to render
	ErrEmptyComposition = errors.New("composition has no clips")

	// ErrNoVideoBase is returned when text clips exist without any video
	// clip to draw on
	ErrNoVideoBase = fmt.Errorf("%w: text overlays need at least one video clip", ErrEmptyComposition)
)

// Plan is a compiled timeline. VideoLabel and AudioLabel name the pads to
// map; either is empty when the composition has no such track.
type Plan struct {
	Graph      graph.Graph
	VideoLabel string
	AudioLabel string
}

// Compile builds the filter graph for one composition. It does not modify
// its inputs and compiling the same clips twice yields identical graphs.
//
// Media clips are laid out in position order (ties keep load order). Video
// clips advance a cursor and black filler covers every gap before a video
// clip, plus the tail up to the last video or text end. Audio clips are
// delayed to their position and mixed; they never move the cursor. Text
// clips are chained over the joined video in load order.
func Compile(canvas clips.Canvas, media []clips.Media, texts []*clips.TextClip) (*Plan, error) {
	if len(media) == 0 && len(texts) == 0 {
		return nil, ErrEmptyComposition
	}

	ordered := append([]clips.Media(nil), media...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timing().Position < ordered[j].Timing().Position
	})

	var (
		plan        = &Plan{}
		cursor      float64
		fillers     int
		videoInputs []string
		audioInputs []string
		hasVideo    bool
		maxEnd      float64
	)

	filler := func(duration float64) {
		label := fmt.Sprintf("black%d", fillers)
		fillers++
		videoInputs = append(videoInputs, plan.Graph.Add(graph.Stage{
			Kind: graph.KindFiller,
			Filters: ffmpeg.NewFilterBuilder().
				Color("black", canvas.Width, canvas.Height, roundTime(duration), canvas.FPS).
				SquarePixels().
				BuildAll(),
			Output: label,
		}))
	}

	for _, m := range ordered {
		switch c := m.(type) {
		case *clips.VideoClip:
			hasVideo = true
			if c.Position-cursor > gapEpsilon {
				filler(c.Position - cursor)
			}
			videoInputs = append(videoInputs, plan.Graph.Add(videoStage(canvas, c)))
			if c.HasAudio {
				audioInputs = append(audioInputs, plan.Graph.Add(audioStage(c.InputIndex, c.Cut)))
			}
			cursor = c.End
			maxEnd = math.Max(maxEnd, c.End)

		case *clips.AudioClip:
			audioInputs = append(audioInputs, plan.Graph.Add(audioStage(c.InputIndex, c.Cut)))
		}
	}

	if len(texts) > 0 && !hasVideo {
		return nil, ErrNoVideoBase
	}

	if hasVideo {
		for _, tc := range texts {
			maxEnd = math.Max(maxEnd, tc.End)
		}
		if maxEnd-cursor > gapEpsilon {
			filler(maxEnd - cursor)
		}

		plan.VideoLabel = plan.Graph.Add(graph.Stage{
			Kind:    graph.KindConcat,
			Inputs:  videoInputs,
			Filters: []string{fmt.Sprintf("concat=n=%d:v=1:a=0", len(videoInputs))},
			Output:  LabelVideo,
		})
	}

	if len(audioInputs) > 0 {
		plan.AudioLabel = plan.Graph.Add(graph.Stage{
			Kind:    graph.KindMix,
			Inputs:  audioInputs,
			Filters: []string{fmt.Sprintf("amix=inputs=%d:duration=longest", len(audioInputs))},
			Output:  LabelAudio,
		})
	}

	for i, tc := range texts {
		out := fmt.Sprintf("text%d", i)
		if i == len(texts)-1 {
			out = LabelVideoText
		}
		plan.VideoLabel = plan.Graph.Add(graph.Stage{
			Kind:    graph.KindDrawText,
			Inputs:  []string{plan.VideoLabel},
			Filters: []string{overlays.DrawText(tc, canvas)},
			Output:  out,
		})
	}

	return plan, nil
}

// videoStage trims, fits and letterboxes one video clip to the canvas
func videoStage(canvas clips.Canvas, v *clips.VideoClip) graph.Stage {
	return graph.Stage{
		Kind:   graph.KindVideoTrim,
		Inputs: []string{fmt.Sprintf("%d:v", v.InputIndex)},
		Filters: ffmpeg.NewFilterBuilder().
			Trim(v.CutFrom, roundTime(v.TrimEnd())).
			ResetPTS().
			ScaleFit(canvas.Width, canvas.Height).
			PadCenter(canvas.Width, canvas.Height).
			SquarePixels().
			FPS(canvas.FPS).
			BuildAll(),
		Output: fmt.Sprintf("v%d", v.InputIndex),
	}
}

// audioStage applies gain, trims the source window and delays it to the
// clip's timeline position
func audioStage(index int, cut clips.Cut) graph.Stage {
	return graph.Stage{
		Kind:   graph.KindAudio,
		Inputs: []string{fmt.Sprintf("%d:a", index)},
		Filters: ffmpeg.NewFilterBuilder().
			Volume(cut.Volume).
			AudioTrim(cut.CutFrom, roundTime(cut.TrimEnd())).
			AudioDelay(cut.Position).
			AudioResetPTS().
			BuildAll(),
		Output: fmt.Sprintf("a%d", index),
	}
}

func roundTime(s float64) float64 {
	return math.Round(s*1e6) / 1e6
}
