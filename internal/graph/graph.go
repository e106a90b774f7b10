// Package graph is the typed intermediate form of an ffmpeg filter_complex.
//
// A Graph is an ordered list of stages. Each stage reads one or more labeled
// pads, applies a comma-separated filter chain and writes exactly one labeled
// pad. Text is produced only by String, so compilers can be tested against
// the stage list without parsing filter syntax.
package graph

import "strings"

// Kind identifies what a stage does in the timeline
type Kind int

const (
	KindFiller Kind = iota
	KindVideoTrim
	KindAudio
	KindConcat
	KindMix
	KindDrawText
)

func (k Kind) String() string {
	switch k {
	case KindFiller:
		return "filler"
	case KindVideoTrim:
		return "video-trim"
	case KindAudio:
		return "audio"
	case KindConcat:
		return "concat"
	case KindMix:
		return "mix"
	case KindDrawText:
		return "drawtext"
	default:
		return "unknown"
	}
}

// Stage is one node of the graph. Stages are values and are never mutated
// after the compiler appends them.
type Stage struct {
	Kind    Kind
	Inputs  []string
	Filters []string
	Output  string
}

// String renders the stage as "[in1][in2]f1,f2[out]"
func (s Stage) String() string {
	var b strings.Builder
	for _, in := range s.Inputs {
		b.WriteString(Pad(in))
	}
	b.WriteString(strings.Join(s.Filters, ","))
	b.WriteString(Pad(s.Output))
	return b.String()
}

// Graph is an ordered stage list
type Graph struct {
	Stages []Stage
}

// Add appends a stage and returns its output label
func (g *Graph) Add(s Stage) string {
	g.Stages = append(g.Stages, s)
	return s.Output
}

// Len returns the number of stages
func (g *Graph) Len() int {
	return len(g.Stages)
}

// OfKind returns the stages of one kind, in graph order
func (g *Graph) OfKind(k Kind) []Stage {
	var out []Stage
	for _, s := range g.Stages {
		if s.Kind == k {
			out = append(out, s)
		}
	}
	return out
}

// String joins every stage with ';', the filter_complex separator
func (g *Graph) String() string {
	parts := make([]string, len(g.Stages))
	for i, s := range g.Stages {
		parts[i] = s.String()
	}
	return strings.Join(parts, ";")
}

// Lines renders one stage per line. Used for dry-run output and golden files.
func (g *Graph) Lines() string {
	var b strings.Builder
	for _, s := range g.Stages {
		b.WriteString(s.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// Pad wraps a label in brackets
func Pad(label string) string {
	return "[" + label + "]"
}
