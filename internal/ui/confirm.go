package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Confirmation describes a prompt that must be answered with an exact phrase
type Confirmation struct {
	Title    string
	Warnings []string
	Phrase   string // e.g., "REBOOT"
	Width    int
}

// Render returns the warning box shown before the prompt
func (c Confirmation) Render() string {
	width := clampWidth(c.Width)

	lines := []string{
		"",
		WarningTitleStyle.Render(fmt.Sprintf("   %s  WARNING  ─  %s", WarningMarker, c.Title)),
		"",
	}
	bullet := lipgloss.NewStyle().Foreground(TextColor)
	for _, w := range c.Warnings {
		lines = append(lines, bullet.Render("   • "+w))
	}
	lines = append(lines, "")

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(WarningColor).
		Width(width-2).
		Padding(0, 2).
		Render(strings.Join(lines, "\n"))
}

// Ask prints the warning box to out and reads one line from in.
// It returns true only when the line equals the phrase (surrounding
// whitespace ignored, case sensitive).
func (c Confirmation) Ask(in io.Reader, out io.Writer) bool {
	fmt.Fprintln(out, c.Render())
	fmt.Fprintln(out)
	fmt.Fprint(out, lipgloss.NewStyle().Foreground(WarningColor).Bold(true).
		Render(fmt.Sprintf("Type %q to proceed: ", c.Phrase)))

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	if strings.TrimSpace(line) != c.Phrase {
		fmt.Fprintln(out, lipgloss.NewStyle().Foreground(MutedColor).Render("Aborted."))
		return false
	}
	return true
}

// RebootConfirmation is the prompt shown before restarting a WiFi module
func RebootConfirmation(device string) Confirmation {
	return Confirmation{
		Title: "Reboot " + device,
		Warnings: []string{
			"The WiFi module restarts and is unreachable for about a minute",
			"The current session is discarded and must be re-established",
			"The air conditioning unit keeps running with its last settings",
		},
		Phrase: "REBOOT",
		Width:  GetTerminalWidth(),
	}
}
