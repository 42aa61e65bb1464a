// Package ui prints human-readable results to stderr, leaving stdout for
// machine-readable output.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
)

// ColorMode determines when to use colored output.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode maps "auto", "always" and "never" to a ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q (use auto, always or never)", s)
	}
}

// UI writes colored status lines.
type UI struct {
	out *termenv.Output
}

// New creates a UI on stderr. NO_COLOR disables colors.
func New(mode ColorMode) *UI {
	return NewWithWriter(os.Stderr, mode)
}

// NewWithWriter creates a UI writing to w.
func NewWithWriter(w io.Writer, mode ColorMode) *UI {
	if os.Getenv("NO_COLOR") != "" {
		mode = ColorNever
	}

	profile := termenv.NewOutput(w).ColorProfile()
	switch mode {
	case ColorNever:
		profile = termenv.Ascii
	case ColorAlways:
		if profile == termenv.Ascii {
			profile = termenv.ANSI256
		}
	}

	return &UI{out: termenv.NewOutput(w, termenv.WithProfile(profile))}
}

// Success prints a success message in green.
func (u *UI) Success(format string, args ...any) {
	u.line("✓ ", termenv.ANSIGreen, format, args...)
}

// Warning prints a warning message in yellow.
func (u *UI) Warning(format string, args ...any) {
	u.line("⚠ ", termenv.ANSIYellow, format, args...)
}

// Error prints an error message in red.
func (u *UI) Error(format string, args ...any) {
	u.line("✗ ", termenv.ANSIRed, format, args...)
}

// Info prints an informational message in blue.
func (u *UI) Info(format string, args ...any) {
	u.line("ℹ ", termenv.ANSIBlue, format, args...)
}

// Field prints an indented key/value pair with a faint key.
func (u *UI) Field(key string, value any) {
	_, _ = fmt.Fprintf(u.out, "  %s %v\n", u.out.String(key+":").Faint(), value)
}

// Writer returns the underlying writer.
func (u *UI) Writer() io.Writer {
	return u.out
}

func (u *UI) line(prefix string, color termenv.ANSIColor, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintln(u.out, u.out.String(prefix+msg).Foreground(color))
}
