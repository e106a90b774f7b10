package timeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keagan/composer/internal/clips"
)

func TestAssembleOrdersInputsByLoadIndex(t *testing.T) {
	media := []clips.Media{
		videoClip(0, "late.mp4", 10, 12, 0, false),
		audioClip(1, "music.mp3", 0, 12, 0, 1),
		videoClip(2, "early.mp4", 0, 10, 0, true),
	}
	plan, err := Compile(hd, media, nil)
	require.NoError(t, err)

	// reversed slice must not change input order
	reversed := []clips.Media{media[2], media[1], media[0]}
	cmd := Assemble(plan, reversed, "out/final.mp4")

	assert.Equal(t, []string{"late.mp4", "music.mp3", "early.mp4"}, cmd.Inputs)
	assert.Equal(t, []string{"[outv]", "[outa]"}, cmd.Maps)
	assert.Equal(t, "out/final.mp4", cmd.Output)
	assert.Equal(t, plan.Graph.String(), cmd.FilterGraph)
}

func TestAssembleVideoOnly(t *testing.T) {
	media := []clips.Media{videoClip(0, "a.mp4", 0, 5, 0, false)}
	plan, err := Compile(hd, media, nil)
	require.NoError(t, err)

	cmd := Assemble(plan, media, "")

	assert.Equal(t, DefaultOutput, cmd.Output)
	assert.Equal(t, []string{"[outv]"}, cmd.Maps)
	assert.Equal(t, []string{"-c:v", "libx264", "-preset", "medium", "-crf", "23"}, cmd.VideoArgs)
	assert.Empty(t, cmd.AudioArgs)
}

func TestAssembleAudioOnly(t *testing.T) {
	media := []clips.Media{audioClip(0, "voice.wav", 3, 8, 0, 1)}
	plan, err := Compile(hd, media, nil)
	require.NoError(t, err)

	cmd := Assemble(plan, media, "voice.m4a")

	assert.Equal(t, []string{"[outa]"}, cmd.Maps)
	assert.Empty(t, cmd.VideoArgs)
	assert.Equal(t, []string{"-c:a", "aac", "-b:a", "192k"}, cmd.AudioArgs)
}

func TestAssembleMapsTextOutput(t *testing.T) {
	media := []clips.Media{videoClip(0, "a.mp4", 0, 5, 0, true)}
	plan, err := Compile(hd, media, []*clips.TextClip{textClip("hello", 0, 1)})
	require.NoError(t, err)

	cmd := Assemble(plan, media, "o.mp4")
	assert.Equal(t, []string{"[outVideoAndText]", "[outa]"}, cmd.Maps)

	args := cmd.Args()
	assert.Equal(t, []string{"-i", "a.mp4", "-filter_complex"}, args[:3])
	assert.Equal(t, "o.mp4", args[len(args)-1])
}
