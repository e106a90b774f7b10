// Package overlays renders text clips as drawtext filters.
package overlays

import (
	"fmt"
	"strings"

	"github.com/keagan/composer/internal/clips"
	"github.com/keagan/composer/internal/ffmpeg"
	"github.com/keagan/composer/pkg/util"
)

// DrawText returns the drawtext filter for one caption on the given canvas.
// The caption is visible while position <= t <= end.
func DrawText(tc *clips.TextClip, canvas clips.Canvas) string {
	opts := []string{
		"text=" + EscapeText(tc.Text),
		"expansion=none",
		"fontfile=" + ffmpeg.EscapeFilterPath(tc.FontFile),
		fmt.Sprintf("fontsize=%d", tc.FontSize),
		"fontcolor=" + tc.FontColor,
		"x=" + Placement(tc.X, canvas.Width, "text_w"),
		"y=" + Placement(tc.Y, canvas.Height, "text_h"),
	}
	opts = append(opts, decorations(tc)...)
	opts = append(opts, Enable(tc.Span))

	return "drawtext=" + strings.Join(opts, ":")
}

// Enable gates a filter to a closed timeline interval
func Enable(s clips.Span) string {
	return fmt.Sprintf("enable='between(t,%s,%s)'", num(s.Position), num(s.End))
}

// Placement returns the coordinate expression for one axis. Centered axes
// become (canvas-size)/2 shifted by the offset; absolute axes are the
// offset itself.
func Placement(a clips.Axis, canvas int, sizeVar string) string {
	if !a.Centered {
		return num(a.Offset)
	}
	expr := fmt.Sprintf("(%d-%s)/2", canvas, sizeVar)
	switch {
	case a.Offset > 0:
		return expr + "+" + num(a.Offset)
	case a.Offset < 0:
		return expr + "-" + num(-a.Offset)
	default:
		return expr
	}
}

// EscapeText returns the quoted drawtext value that renders s literally.
// Text expansion is disabled, so % and backslashes need no third level.
func EscapeText(s string) string {
	return ffmpeg.FilterValue(s)
}

func decorations(tc *clips.TextClip) []string {
	var out []string

	if tc.Border.Color != "" {
		out = append(out, "bordercolor="+tc.Border.Color)
	}
	if tc.Border.Width > 0 {
		out = append(out, "borderw="+num(tc.Border.Width))
	}

	if tc.Shadow.Color != "" {
		out = append(out, "shadowcolor="+tc.Shadow.Color)
	}
	if tc.Shadow.X != 0 {
		out = append(out, "shadowx="+num(tc.Shadow.X))
	}
	if tc.Shadow.Y != 0 {
		out = append(out, "shadowy="+num(tc.Shadow.Y))
	}

	if tc.Box.Color != "" {
		color := tc.Box.Color
		if tc.Box.Opacity > 0 {
			color += "@" + num(tc.Box.Opacity)
		}
		out = append(out, "box=1", "boxcolor="+color)
	}
	if tc.Box.Padding > 0 {
		out = append(out, "boxborderw="+num(tc.Box.Padding))
	}

	return out
}

func num(f float64) string {
	return util.FormatSeconds(f)
}
