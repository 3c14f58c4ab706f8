// Package output prints styled status lines for the magpie CLI.
//
// Styling follows the rest of the Firebird Suite: lipgloss colors with an
// emoji marker per message kind. Output goes to stdout and errors to stderr
// unless redirected with SetWriter and SetErrorWriter, which tests and cobra
// commands use to capture them.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("green")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("red")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("yellow")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("cyan"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	mu          sync.Mutex
	writer      io.Writer = os.Stdout
	errWriter   io.Writer = os.Stderr
	verboseMode bool
)

// SetVerbose enables or disables verbose output.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verboseMode = v
}

// SetWriter redirects all output. A nil writer restores stdout.
func SetWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	writer = w
}

// SetErrorWriter redirects Error output. A nil writer restores stderr.
func SetErrorWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	errWriter = w
}

// Success prints a completed operation.
//
//	output.Success("Wrote 12 edges to mappings/1.18.1")
func Success(msg string) {
	writeLine(successStyle.Render("🐦 " + msg))
}

// Error prints a failure that needs attention.
func Error(msg string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(errWriter, errorStyle.Render("❌ "+msg))
}

// Warn prints a problem that did not stop the run.
func Warn(msg string) {
	writeLine(warnStyle.Render("⚠️  " + msg))
}

// Info prints a status update.
func Info(msg string) {
	writeLine(infoStyle.Render("ℹ️  " + msg))
}

// Step prints an indented sub-item, such as one written file.
func Step(msg string) {
	writeLine(stepStyle.Render("   " + msg))
}

// Verbose prints debugging detail, only when verbose mode is on.
func Verbose(msg string) {
	mu.Lock()
	enabled := verboseMode
	mu.Unlock()

	if enabled {
		writeLine(stepStyle.Render("🔍 " + msg))
	}
}

// Plain prints an unstyled line, for machine-readable command output.
func Plain(msg string) {
	writeLine(msg)
}

func writeLine(s string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintln(writer, s)
}
