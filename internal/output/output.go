// Package output prints styled status lines for the molt CLI.
//
// Functions use lipgloss for styling but abstract away the details from
// callers. The package-level functions write to stdout; a Printer can be
// pointed at any writer.
//
//	output.Success("Updated to 1.4.0")
//	output.Warn("2 files need manual attention:")
//	output.Step("README.md (overlapping edit)")
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
)

// Printer writes styled lines to a writer.
type Printer struct {
	mu      sync.Mutex
	out     io.Writer
	verbose bool
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// SetVerbose enables or disables Verbose lines.
func (p *Printer) SetVerbose(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verbose = v
}

func (p *Printer) line(style lipgloss.Style, s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, style.Render(s))
}

// Success prints a completed operation.
func (p *Printer) Success(msg string) { p.line(successStyle, "✔ "+msg) }

// Error prints a failure that needs user attention.
func (p *Printer) Error(msg string) { p.line(errorStyle, "✗ "+msg) }

// Warn prints something that finished but needs a follow-up.
func (p *Printer) Warn(msg string) { p.line(warnStyle, "⚠ "+msg) }

// Info prints a status update.
func (p *Printer) Info(msg string) { p.line(infoStyle, "ℹ "+msg) }

// Step prints an indented sub-item.
func (p *Printer) Step(msg string) { p.line(stepStyle, "   "+msg) }

// Verbose prints msg only when verbose mode is on.
func (p *Printer) Verbose(msg string) {
	p.mu.Lock()
	v := p.verbose
	p.mu.Unlock()
	if v {
		p.line(stepStyle, "· "+msg)
	}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.out
}

var std = NewPrinter(os.Stdout)

// Default returns the stdout printer used by the package-level functions.
func Default() *Printer { return std }

// SetVerbose enables or disables verbose output on the default printer.
// This should be called by the CLI when the --verbose flag is set.
func SetVerbose(v bool) { std.SetVerbose(v) }

func Success(msg string) { std.Success(msg) }
func Error(msg string)   { std.Error(msg) }
func Warn(msg string)    { std.Warn(msg) }
func Info(msg string)    { std.Info(msg) }
func Step(msg string)    { std.Step(msg) }
func Verbose(msg string) { std.Verbose(msg) }
