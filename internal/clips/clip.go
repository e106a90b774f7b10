package clips

// Kind names a clip variant as it appears in descriptors
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindText  Kind = "text"
)

// Canvas holds the global composition parameters. It is fixed for the
// lifetime of a composition.
type Canvas struct {
	Width  int
	Height int
	FPS    float64
}

// DefaultCanvas is 1920x1080 at 30 fps
func DefaultCanvas() Canvas {
	return Canvas{Width: 1920, Height: 1080, FPS: 30}
}

// Span is a clip's window on the timeline, in seconds
type Span struct {
	Position float64
	End      float64
}

// Duration is the clip's length on the timeline
func (s Span) Duration() float64 {
	return s.End - s.Position
}

// Cut is a timeline span plus the matching source window and gain
type Cut struct {
	Span
	CutFrom float64
	Volume  float64
}

// TrimEnd is the source timestamp where the clip stops reading:
// CutFrom + (End - Position).
func (c Cut) TrimEnd() float64 {
	return c.CutFrom + (c.End - c.Position)
}

// Media is a clip backed by an input file: *VideoClip or *AudioClip
type Media interface {
	Kind() Kind
	SourceRef() string
	LoadIndex() int
	Timing() Cut
	Clone() Media
}

// VideoClip places a section of a video file on the timeline
type VideoClip struct {
	Cut
	Source     string
	InputIndex int

	// Probed. Zero values mean "unknown" or "not present".
	Rotation       int
	HasAudio       bool
	Width          int
	Height         int
	SourceDuration float64
}

func (v *VideoClip) Kind() Kind        { return KindVideo }
func (v *VideoClip) SourceRef() string { return v.Source }
func (v *VideoClip) LoadIndex() int    { return v.InputIndex }
func (v *VideoClip) Timing() Cut       { return v.Cut }

// Clone returns a shallow copy
func (v *VideoClip) Clone() Media {
	c := *v
	return &c
}

// NeedsRotation reports whether the source carries a non-identity
// orientation that must be baked in before compositing
func (v *VideoClip) NeedsRotation() bool {
	return v.Rotation != 0
}

// AudioClip places a section of an audio file on the timeline
type AudioClip struct {
	Cut
	Source     string
	InputIndex int

	SourceDuration float64
}

func (a *AudioClip) Kind() Kind        { return KindAudio }
func (a *AudioClip) SourceRef() string { return a.Source }
func (a *AudioClip) LoadIndex() int    { return a.InputIndex }
func (a *AudioClip) Timing() Cut       { return a.Cut }

// Clone returns a shallow copy
func (a *AudioClip) Clone() Media {
	c := *a
	return &c
}

// Axis positions text along one dimension. Centered places the text's
// middle at the canvas middle, shifted by Offset; otherwise Offset is an
// absolute pixel coordinate.
type Axis struct {
	Centered bool
	Offset   float64
}

// Border outlines glyphs
type Border struct {
	Color string
	Width float64
}

// Shadow draws a drop shadow behind glyphs
type Shadow struct {
	Color string
	X     float64
	Y     float64
}

// Box fills a background rectangle behind the text
type Box struct {
	Color   string
	Opacity float64
	Padding float64
}

// TextClip draws a caption over the composed video between Position and End
type TextClip struct {
	Span
	Text      string
	FontFile  string
	FontSize  int
	FontColor string
	X         Axis
	Y         Axis
	Border    Border
	Shadow    Shadow
	Box       Box
}

// Clone returns a copy
func (t *TextClip) Clone() *TextClip {
	c := *t
	return &c
}
