package output

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorScheme provides color functions for report elements
type ColorScheme struct {
	// ClusterName colors cluster and job names
	ClusterName func(format string, a ...interface{}) string

	// Success colors success status
	Success func(format string, a ...interface{}) string

	// Error colors failures
	Error func(format string, a ...interface{}) string

	// Warning colors job error details
	Warning func(format string, a ...interface{}) string

	// Header colors table headers
	Header func(format string, a ...interface{}) string

	// Duration colors duration values
	Duration func(format string, a ...interface{}) string

	// Disabled indicates if colors are disabled
	Disabled bool
}

// NewColorScheme creates a new color scheme
// Colors are disabled for non-TTY outputs or when noColor is true.
func NewColorScheme(w io.Writer, noColor bool) *ColorScheme {
	if noColor || !isTTY(w) {
		return &ColorScheme{
			ClusterName: fmt.Sprintf,
			Success:     fmt.Sprintf,
			Error:       fmt.Sprintf,
			Warning:     fmt.Sprintf,
			Header:      fmt.Sprintf,
			Duration:    fmt.Sprintf,
			Disabled:    true,
		}
	}

	return &ColorScheme{
		ClusterName: colored(color.FgCyan, color.Bold),
		Success:     colored(color.FgGreen),
		Error:       colored(color.FgRed, color.Bold),
		Warning:     colored(color.FgYellow),
		Header:      colored(color.FgWhite, color.Bold),
		Duration:    colored(color.FgBlue),
	}
}

// colored forces color on, since the writer was already found to be a terminal
func colored(attrs ...color.Attribute) func(format string, a ...interface{}) string {
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprintf
}

// isTTY checks if the writer is a terminal
func isTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// StatusColor returns an appropriate color function based on error status
func (cs *ColorScheme) StatusColor(hasError bool) func(format string, a ...interface{}) string {
	if hasError {
		return cs.Error
	}
	return cs.Success
}
