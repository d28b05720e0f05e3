// Package console prints the user-facing status lines of isaaclab.
//
// These are the [INFO]/[WARN]/[ERROR] messages the user is meant to read,
// distinct from the zap diagnostics in internal/logging. Colour is applied
// only when the writer is a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colours.
var (
	Info        = lipgloss.Color("#2196F3") // Blue
	Warning     = lipgloss.Color("#FFC107") // Yellow
	Destructive = lipgloss.Color("#e53935") // Red
)

// Printer writes tagged status lines.
type Printer struct {
	mu sync.Mutex
	w  io.Writer

	info  lipgloss.Style
	warn  lipgloss.Style
	error lipgloss.Style
}

// New returns a Printer for w. The lipgloss renderer inspects w, so a
// bytes.Buffer or a pipe gets plain text.
func New(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:     w,
		info:  r.NewStyle().Foreground(Info).Bold(true),
		warn:  r.NewStyle().Foreground(Warning).Bold(true),
		error: r.NewStyle().Foreground(Destructive).Bold(true),
	}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer { return p.w }

// Infof prints an [INFO] line.
func (p *Printer) Infof(format string, args ...any) {
	p.tagged(p.info, "[INFO]", format, args...)
}

// Warnf prints a [WARN] line.
func (p *Printer) Warnf(format string, args ...any) {
	p.tagged(p.warn, "[WARN]", format, args...)
}

// Errorf prints an [ERROR] line. Multi-line messages keep their layout.
func (p *Printer) Errorf(format string, args ...any) {
	p.tagged(p.error, "[ERROR]", format, args...)
}

// Println prints text verbatim.
func (p *Printer) Println(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, text)
}

func (p *Printer) tagged(style lipgloss.Style, tag, format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s %s\n", style.Render(tag), msg)
}
