package ffmpeg

import (
	"strconv"
	"strings"
)

// MediaInfo is the subset of ffprobe output the compositor relies on.
// Zero values mean unknown.
type MediaInfo struct {
	Path       string
	Duration   float64 // seconds
	Width      int
	Height     int
	Rotation   int // degrees in [0, 360)
	FPS        float64
	Bitrate    int64
	HasVideo   bool
	HasAudio   bool
	VideoCodec string
	AudioCodec string
}

// Progress is one block of ffmpeg -progress output
type Progress struct {
	Frame         int
	FPS           float64
	Bitrate       string
	Time          string
	OutTimeMicros int64
	Speed         string
	Done          bool
}

// ProgressFunc is called once per progress block while ffmpeg runs
type ProgressFunc func(*Progress)

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler ProgressFunc
	LogHandler      func(line string)
}

// Fixed encoder parameters of every render
const (
	DefaultCRF          = 23
	DefaultPreset       = "medium"
	DefaultVideoCodec   = "libx264"
	DefaultAudioCodec   = "aac"
	DefaultAudioBitrate = "192k"
)

// VideoEncoderArgs are the output options for the mapped video stream
func VideoEncoderArgs() []string {
	return []string{"-c:v", DefaultVideoCodec, "-preset", DefaultPreset, "-crf", strconv.Itoa(DefaultCRF)}
}

// AudioEncoderArgs are the output options for the mapped audio stream
func AudioEncoderArgs() []string {
	return []string{"-c:a", DefaultAudioCodec, "-b:a", DefaultAudioBitrate}
}

// Command is a fully assembled render: inputs, one filter graph, the pads
// to map and the output file. Args renders it without the global options
// the Executor prepends.
type Command struct {
	Inputs      []string `json:"inputs"`
	FilterGraph string   `json:"filter_graph"`
	Maps        []string `json:"maps"`
	VideoArgs   []string `json:"video_args,omitempty"`
	AudioArgs   []string `json:"audio_args,omitempty"`
	Output      string   `json:"output"`
}

// Args returns the ffmpeg argv after the binary and global options
func (c *Command) Args() []string {
	args := make([]string, 0, 2*len(c.Inputs)+2*len(c.Maps)+len(c.VideoArgs)+len(c.AudioArgs)+3)
	for _, in := range c.Inputs {
		args = append(args, "-i", in)
	}
	if c.FilterGraph != "" {
		args = append(args, "-filter_complex", c.FilterGraph)
	}
	for _, m := range c.Maps {
		args = append(args, "-map", m)
	}
	args = append(args, c.VideoArgs...)
	args = append(args, c.AudioArgs...)
	args = append(args, c.Output)
	return args
}

// String renders the command as a single shell line for logs and dry runs
func (c *Command) String() string {
	args := c.Args()
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, "ffmpeg")
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if !strings.ContainsAny(s, " \t\n'\"\\$`;&|<>()[]*?!{}#~=,") {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
