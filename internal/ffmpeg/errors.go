package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

// ProcessError is a failed ffmpeg run
type ProcessError struct {
	Err  error
	Tail []string // last diagnostic lines of stderr
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("ffmpeg execution failed: %v", e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Diagnostic joins the stderr tail
func (e *ProcessError) Diagnostic() string {
	return strings.Join(e.Tail, "\n")
}

// ReencodeError reports a rotation re-encode that did not produce output
type ReencodeError struct {
	Source  string
	Details string
	Err     error
}

func (e *ReencodeError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("re-encode %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("re-encode %s: %v: %s", e.Source, e.Err, e.Details)
}

func (e *ReencodeError) Unwrap() error { return e.Err }

// RenderError reports a failed final render
type RenderError struct {
	Output     string
	Diagnostic string
	Err        error
}

func (e *RenderError) Error() string {
	if e.Diagnostic == "" {
		return fmt.Sprintf("render %s: %v", e.Output, e.Err)
	}
	return fmt.Sprintf("render %s: %v: %s", e.Output, e.Err, e.Diagnostic)
}

func (e *RenderError) Unwrap() error { return e.Err }

// diagnostic pulls the stderr tail out of a Run error, if any
func diagnostic(err error) string {
	var pe *ProcessError
	if errors.As(err, &pe) {
		return pe.Diagnostic()
	}
	return ""
}
