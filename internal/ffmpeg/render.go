package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/keagan/composer/pkg/util"
)

// Execute runs an assembled command to completion. Progress blocks go to
// the debug log and to the executor's progress callback.
func (e *Executor) Execute(ctx context.Context, cmd *Command) error {
	if err := validateCommand(cmd); err != nil {
		return fmt.Errorf("invalid render command: %w", err)
	}

	if err := util.EnsureParentDir(cmd.Output); err != nil {
		return &RenderError{Output: cmd.Output, Err: fmt.Errorf("create output directory: %w", err)}
	}

	e.logger.Info().
		Int("inputs", len(cmd.Inputs)).
		Strs("maps", cmd.Maps).
		Str("output", cmd.Output).
		Msg("starting render")

	runOpts := RunOptions{
		Args: cmd.Args(),
		ProgressHandler: func(p *Progress) {
			e.logger.Debug().
				Int("frame", p.Frame).
				Float64("fps", p.FPS).
				Str("time", p.Time).
				Str("speed", p.Speed).
				Msg("render progress")
			if e.progress != nil {
				e.progress(p)
			}
		},
		LogHandler: func(line string) {
			e.logger.Trace().Str("ffmpeg", line).Msg("render output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return &RenderError{
			Output:     cmd.Output,
			Diagnostic: diagnostic(err),
			Err:        err,
		}
	}

	e.logger.Info().Str("output", cmd.Output).Msg("render completed")
	return nil
}

func validateCommand(cmd *Command) error {
	if cmd == nil {
		return errors.New("command is nil")
	}
	if len(cmd.Inputs) == 0 && cmd.FilterGraph == "" {
		return errors.New("command has neither inputs nor a filter graph")
	}
	if len(cmd.Maps) == 0 {
		return errors.New("command maps no streams")
	}
	if cmd.Output == "" {
		return errors.New("output path is required")
	}
	return nil
}

// optionEscaper escapes the characters the filter option parser treats as
// syntax. Quotes are escaped rather than used so that the graph level can
// own the quoting.
var optionEscaper = strings.NewReplacer(
	`\`, `\\`,
	"'", `\'`,
	":", `\:`,
	"%", `\%`,
)

// EscapeOptionValue escapes s for the filter option parser, the second of
// the two passes ffmpeg makes over -filter_complex text
func EscapeOptionValue(s string) string {
	return optionEscaper.Replace(s)
}

// QuoteGraphValue quotes s for the filtergraph parser, the first pass. A
// quote inside s closes the string, emits an escaped quote and reopens it.
func QuoteGraphValue(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// FilterValue makes an arbitrary string reach a filter option unchanged
func FilterValue(s string) string {
	return QuoteGraphValue(EscapeOptionValue(s))
}

// EscapeFilterPath escapes a file path for use as a filter option value,
// e.g. drawtext's fontfile. Relative paths stay relative.
func EscapeFilterPath(path string) string {
	// Windows: forward slashes; the drive colon is escaped like any other
	if runtime.GOOS == "windows" {
		path = filepath.ToSlash(path)
	}
	return FilterValue(path)
}
