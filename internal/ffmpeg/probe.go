package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/keagan/composer/pkg/util"
)

// ProbeMedia reads duration, geometry, rotation and audio presence of a
// media file or URL
func (e *Executor) ProbeMedia(ctx context.Context, ref string) (*MediaInfo, error) {
	if ref == "" {
		return nil, errors.New("media reference is required")
	}

	args := []string{
		"-v", "error",
		"-show_format",
		"-show_streams",
		"-of", "json",
		ref,
	}

	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("ffprobe %s: %w", ref, err)
		}
		return nil, fmt.Errorf("ffprobe %s: %w: %s", ref, err, msg)
	}

	info, err := ParseProbeJSON(ref, output)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("source", ref).
		Float64("duration", info.Duration).
		Int("width", info.Width).
		Int("height", info.Height).
		Int("rotation", info.Rotation).
		Bool("has_audio", info.HasAudio).
		Msg("probed media")

	return info, nil
}

// ParseProbeJSON decodes `ffprobe -show_format -show_streams -of json`.
// Geometry and rotation come from the first video stream. Rotation is read
// from the display matrix side data, falling back to the legacy rotate tag.
func ParseProbeJSON(ref string, data []byte) (*MediaInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &MediaInfo{Path: ref}

	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = dur
	}
	if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
		info.Bitrate = br
	}

	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			if info.HasVideo {
				continue
			}
			info.HasVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName
			if stream.RFrameRate != "" {
				info.FPS = util.ParseFrameRate(stream.RFrameRate)
			}
			info.Rotation = streamRotation(stream.SideDataList, stream.Tags.Rotate)
		case "audio":
			if info.HasAudio {
				continue
			}
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
		}
	}

	return info, nil
}

func streamRotation(sideData []probeSideData, tag string) int {
	for _, sd := range sideData {
		if sd.Rotation != nil {
			return normalizeDegrees(int(math.Round(*sd.Rotation)))
		}
	}
	if tag != "" {
		if deg, err := strconv.Atoi(strings.TrimSpace(tag)); err == nil {
			return normalizeDegrees(deg)
		}
	}
	return 0
}

func normalizeDegrees(deg int) int {
	return ((deg % 360) + 360) % 360
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType    string          `json:"codec_type"`
		CodecName    string          `json:"codec_name"`
		Width        int             `json:"width"`
		Height       int             `json:"height"`
		RFrameRate   string          `json:"r_frame_rate"`
		SideDataList []probeSideData `json:"side_data_list"`
		Tags         struct {
			Rotate string `json:"rotate"`
		} `json:"tags"`
	} `json:"streams"`
}

type probeSideData struct {
	SideDataType string   `json:"side_data_type"`
	Rotation     *float64 `json:"rotation"`
}
