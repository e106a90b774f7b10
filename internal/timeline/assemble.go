package timeline

import (
	"sort"

	"github.com/keagan/composer/internal/clips"
	"github.com/keagan/composer/internal/ffmpeg"
	"github.com/keagan/composer/internal/graph"
)

// DefaultOutput is used when no output path is configured
const DefaultOutput = "./output.mp4"

// Assemble turns a plan into a runnable command. Inputs are listed in load
// order so that input N is the N in the plan's [N:v] and [N:a] pads.
func Assemble(plan *Plan, media []clips.Media, output string) *ffmpeg.Command {
	if output == "" {
		output = DefaultOutput
	}

	ordered := append([]clips.Media(nil), media...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].LoadIndex() < ordered[j].LoadIndex()
	})

	cmd := &ffmpeg.Command{
		Inputs:      make([]string, 0, len(ordered)),
		FilterGraph: plan.Graph.String(),
		Output:      output,
	}
	for _, m := range ordered {
		cmd.Inputs = append(cmd.Inputs, m.SourceRef())
	}

	if plan.VideoLabel != "" {
		cmd.Maps = append(cmd.Maps, graph.Pad(plan.VideoLabel))
		cmd.VideoArgs = ffmpeg.VideoEncoderArgs()
	}
	if plan.AudioLabel != "" {
		cmd.Maps = append(cmd.Maps, graph.Pad(plan.AudioLabel))
		cmd.AudioArgs = ffmpeg.AudioEncoderArgs()
	}

	return cmd
}
