package ui

import (
	"fmt"
	"io"
)

// Printer writes UI components to a writer at a fixed width.
// Commands use it for every piece of styled output.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a printer for out sized to the terminal
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out, width: GetTerminalWidth()}
}

// WithWidth overrides the output width
func (p *Printer) WithWidth(width int) *Printer {
	p.width = width
	return p
}

// PrintHeader prints a command header
func (p *Printer) PrintHeader(title, command string, params map[string]string) {
	fmt.Fprintln(p.out, NewHeader(title, command, params).SetWidth(p.width).Render())
	fmt.Fprintln(p.out)
}

// PrintSuccess prints a success box
func (p *Printer) PrintSuccess(title string, details map[string]string) {
	fmt.Fprintln(p.out, NewSuccessResult(title, details).SetWidth(p.width).Render())
}

// PrintFailure prints a failure box with troubleshooting tips
func (p *Printer) PrintFailure(title string, err error, troubleshooting []string) {
	fmt.Fprintln(p.out, NewFailureResult(title, err, troubleshooting).SetWidth(p.width).Render())
}

// PrintWarning prints a warning box
func (p *Printer) PrintWarning(title string, details map[string]string) {
	fmt.Fprintln(p.out, NewWarningResult(title, details).SetWidth(p.width).Render())
}

// PrintTable prints a table followed by a blank line
func (p *Printer) PrintTable(t *Table) {
	fmt.Fprintln(p.out, t.Render())
	fmt.Fprintln(p.out)
}

// Println prints unstyled text
func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}
