package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/lumen-lang/lumen/internal/diagnostics"
)

// renderer prints diagnostics the way a terminal compiler front end does:
// one line per finding, colored by level, truncated to the terminal's
// width so a long message or path doesn't wrap mid-word.
type renderer struct {
	out      io.Writer
	useColor bool
	width    int

	errorLabel, warnLabel, noteLabel func(string, ...interface{}) string
}

// newRenderer decides whether to color output: "on"/"off" are absolute,
// "auto" colors only when out is a terminal, mirroring
// vovakirdan-surge/cmd/surge's --color flag and isTerminal helper.
func newRenderer(out *os.File, mode string) *renderer {
	useColor := false

	switch mode {
	case "on":
		useColor = true
	case "off":
		useColor = false
	default:
		useColor = term.IsTerminal(int(out.Fd()))
	}

	width := 100
	if w, _, err := term.GetSize(int(out.Fd())); err == nil && w > 0 {
		width = w
	}

	r := &renderer{out: out, useColor: useColor, width: width}

	color.NoColor = !useColor
	r.errorLabel = color.New(color.FgRed, color.Bold).SprintfFunc()
	r.warnLabel = color.New(color.FgYellow, color.Bold).SprintfFunc()
	r.noteLabel = color.New(color.FgCyan).SprintfFunc()

	return r
}

// Render prints every diagnostic in d, capped at max (0 means unlimited),
// and reports how many were dropped by the cap.
func (r *renderer) Render(ds []diagnostics.Diagnostic, max int) (printed, dropped int) {
	for i, d := range ds {
		if max > 0 && i >= max {
			dropped = len(ds) - i

			break
		}

		r.renderOne(d)
		printed++
	}

	if dropped > 0 {
		fmt.Fprintf(r.out, "... %d more diagnostics suppressed (raise --max-diagnostics to see them)\n", dropped)
	}

	return printed, dropped
}

func (r *renderer) renderOne(d diagnostics.Diagnostic) {
	label := r.label(d.Level)
	line := fmt.Sprintf("%s: %s: %s", d.Span.String(), label, d.Message)

	fmt.Fprintln(r.out, r.fit(line))
}

func (r *renderer) label(level diagnostics.Level) string {
	switch level {
	case diagnostics.LevelError:
		return r.errorLabel("error")
	case diagnostics.LevelWarning:
		return r.warnLabel("warning")
	default:
		return r.noteLabel("note")
	}
}

// fit truncates line to the terminal width using display-column width
// rather than byte or rune count, since diagnostic messages can quote
// identifiers containing wide characters.
func (r *renderer) fit(line string) string {
	if r.width <= 0 || runewidth.StringWidth(line) <= r.width {
		return line
	}

	if r.width <= 3 {
		return runewidth.Truncate(line, r.width, "")
	}

	return runewidth.Truncate(line, r.width-3, "...")
}
