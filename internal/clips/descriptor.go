package clips

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/keagan/composer/pkg/util"
)

// Timecode is a timeline value in seconds. Descriptors may spell it as a
// number (12.5) or a timestamp string ("00:00:12.500", "0:12.5").
type Timecode float64

// Seconds returns the value as float seconds
func (t Timecode) Seconds() float64 {
	return float64(t)
}

// UnmarshalYAML accepts numeric and timestamp scalars
func (t *Timecode) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("timecode must be a scalar, got %s", node.Tag)
	}
	v, err := parseTimecode(node.Value)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// UnmarshalJSON accepts numbers and timestamp strings
func (t *Timecode) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	v, err := parseTimecode(raw)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func parseTimecode(s string) (Timecode, error) {
	if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return Timecode(f), nil
	}
	d, err := util.ParseTimestamp(s)
	if err != nil {
		return 0, err
	}
	return Timecode(d.Seconds()), nil
}

// TC is shorthand for building descriptors in code
func TC(seconds float64) *Timecode {
	t := Timecode(seconds)
	return &t
}

// Descriptor is one entry of a load batch, as decoded from a composition
// file or an API request
type Descriptor struct {
	Type   string `yaml:"type" json:"type"`
	Source string `yaml:"source,omitempty" json:"source,omitempty"`

	Position *Timecode `yaml:"position,omitempty" json:"position,omitempty"`
	End      *Timecode `yaml:"end,omitempty" json:"end,omitempty"`
	CutFrom  *Timecode `yaml:"cutFrom,omitempty" json:"cutFrom,omitempty"`
	Volume   *float64  `yaml:"volume,omitempty" json:"volume,omitempty"`

	Text      string   `yaml:"text,omitempty" json:"text,omitempty"`
	FontFile  string   `yaml:"fontFile,omitempty" json:"fontFile,omitempty"`
	FontSize  int      `yaml:"fontSize,omitempty" json:"fontSize,omitempty"`
	FontColor string   `yaml:"fontColor,omitempty" json:"fontColor,omitempty"`
	X         *float64 `yaml:"x,omitempty" json:"x,omitempty"`
	Y         *float64 `yaml:"y,omitempty" json:"y,omitempty"`
	CenterX   *float64 `yaml:"centerX,omitempty" json:"centerX,omitempty"`
	CenterY   *float64 `yaml:"centerY,omitempty" json:"centerY,omitempty"`

	BorderColor       string  `yaml:"borderColor,omitempty" json:"borderColor,omitempty"`
	BorderWidth       float64 `yaml:"borderWidth,omitempty" json:"borderWidth,omitempty"`
	ShadowColor       string  `yaml:"shadowColor,omitempty" json:"shadowColor,omitempty"`
	ShadowX           float64 `yaml:"shadowX,omitempty" json:"shadowX,omitempty"`
	ShadowY           float64 `yaml:"shadowY,omitempty" json:"shadowY,omitempty"`
	BackgroundColor   string  `yaml:"backgroundColor,omitempty" json:"backgroundColor,omitempty"`
	BackgroundOpacity float64 `yaml:"backgroundOpacity,omitempty" json:"backgroundOpacity,omitempty"`
	Padding           float64 `yaml:"padding,omitempty" json:"padding,omitempty"`
}

// TextDefaults fill unset font fields of text descriptors
type TextDefaults struct {
	FontFile  string
	FontSize  int
	FontColor string
}

// DefaultTextDefaults returns the built-in bold face at size 100 in black
func DefaultTextDefaults() TextDefaults {
	return TextDefaults{
		FontFile:  "./fonts/Arial-Bold.ttf",
		FontSize:  100,
		FontColor: "black",
	}
}

// Validate checks the fields required by the descriptor's kind. index is
// the descriptor's position in its batch and is echoed in the error.
func (d Descriptor) Validate(index int) error {
	kind := Kind(strings.ToLower(d.Type))
	switch kind {
	case KindVideo, KindAudio, KindText:
	case "":
		return invalid(index, d.Type, "type is required")
	default:
		return invalid(index, d.Type, "unknown clip type")
	}

	if d.Position == nil {
		return invalid(index, d.Type, "position is required")
	}
	if d.End == nil {
		return invalid(index, d.Type, "end is required")
	}
	pos, end := d.Position.Seconds(), d.End.Seconds()
	if !finite(pos) || !finite(end) {
		return invalid(index, d.Type, "position and end must be finite")
	}
	if pos < 0 {
		return invalid(index, d.Type, "position must not be negative, got %v", pos)
	}
	if end <= pos {
		return invalid(index, d.Type, "end (%v) must be greater than position (%v)", end, pos)
	}

	switch kind {
	case KindVideo, KindAudio:
		if strings.TrimSpace(d.Source) == "" {
			return invalid(index, d.Type, "source is required")
		}
		if d.CutFrom != nil && (d.CutFrom.Seconds() < 0 || !finite(d.CutFrom.Seconds())) {
			return invalid(index, d.Type, "cutFrom must be a non-negative number")
		}
		if d.Volume != nil && (*d.Volume < 0 || !finite(*d.Volume)) {
			return invalid(index, d.Type, "volume must be a non-negative number")
		}
	case KindText:
		if d.Text == "" {
			return invalid(index, d.Type, "text is required")
		}
		if d.FontSize < 0 {
			return invalid(index, d.Type, "fontSize must be positive")
		}
		if d.BackgroundOpacity < 0 || d.BackgroundOpacity > 1 {
			return invalid(index, d.Type, "backgroundOpacity must be within [0,1]")
		}
	}

	return nil
}

// media builds the clip for a validated video or audio descriptor. Probed
// fields and InputIndex are filled in by the registry.
func (d Descriptor) media() Media {
	cut := Cut{
		Span:   Span{Position: d.Position.Seconds(), End: d.End.Seconds()},
		Volume: 1,
	}
	if d.CutFrom != nil {
		cut.CutFrom = d.CutFrom.Seconds()
	}
	if d.Volume != nil {
		cut.Volume = *d.Volume
	}

	if Kind(strings.ToLower(d.Type)) == KindAudio {
		return &AudioClip{Cut: cut, Source: d.Source}
	}
	return &VideoClip{Cut: cut, Source: d.Source}
}

// text builds the clip for a validated text descriptor
func (d Descriptor) text(defaults TextDefaults) *TextClip {
	tc := &TextClip{
		Span:      Span{Position: d.Position.Seconds(), End: d.End.Seconds()},
		Text:      d.Text,
		FontFile:  d.FontFile,
		FontSize:  d.FontSize,
		FontColor: d.FontColor,
		X:         axis(d.CenterX, d.X),
		Y:         axis(d.CenterY, d.Y),
		Border:    Border{Color: d.BorderColor, Width: d.BorderWidth},
		Shadow:    Shadow{Color: d.ShadowColor, X: d.ShadowX, Y: d.ShadowY},
		Box: Box{
			Color:   d.BackgroundColor,
			Opacity: d.BackgroundOpacity,
			Padding: d.Padding,
		},
	}
	if tc.FontFile == "" {
		tc.FontFile = defaults.FontFile
	}
	if tc.FontSize == 0 {
		tc.FontSize = defaults.FontSize
	}
	if tc.FontColor == "" {
		tc.FontColor = defaults.FontColor
	}
	return tc
}

// axis prefers a centered offset, then an absolute coordinate, then plain
// centering
func axis(center, absolute *float64) Axis {
	switch {
	case center != nil:
		return Axis{Centered: true, Offset: *center}
	case absolute != nil:
		return Axis{Offset: *absolute}
	default:
		return Axis{Centered: true}
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
