package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/mhacwifi/internal/accessory"
)

// Snapshotter reads every characteristic of a unit in one call
type Snapshotter interface {
	Snapshot(ctx context.Context) (*accessory.State, error)
}

type watchKeys struct {
	Refresh key.Binding
	Quit    key.Binding
}

func (k watchKeys) ShortHelp() []key.Binding  { return []key.Binding{k.Refresh, k.Quit} }
func (k watchKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

var defaultWatchKeys = watchKeys{
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

type snapshotMsg struct {
	state *accessory.State
	err   error
	at    time.Time
}

type pollMsg struct{}

// WatchModel is a Bubble Tea model that polls a unit and shows its
// characteristics until the user quits.
type WatchModel struct {
	source   Snapshotter
	device   string
	interval time.Duration
	timeout  time.Duration

	spinner spinner.Model
	help    help.Model
	keys    watchKeys

	state   *accessory.State
	err     error
	updated time.Time
	loading bool
	width   int
}

// NewWatchModel creates a model polling source every interval
func NewWatchModel(source Snapshotter, device string, interval time.Duration) WatchModel {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	s := spinner.New(spinner.WithSpinner(spinner.Dot))
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)
	return WatchModel{
		source:   source,
		device:   device,
		interval: interval,
		timeout:  interval,
		spinner:  s,
		help:     help.New(),
		keys:     defaultWatchKeys,
		loading:  true,
		width:    GetTerminalWidth(),
	}
}

// Init implements tea.Model
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m WatchModel) fetch() tea.Cmd {
	source, timeout := m.source, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		state, err := source.Snapshot(ctx)
		return snapshotMsg{state: state, err: err, at: time.Now()}
	}
}

// Update implements tea.Model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.loading {
				return m, nil
			}
			m.loading = true
			return m, m.fetch()
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = clampWidth(msg.Width)
		m.help.Width = m.width
		return m, nil

	case snapshotMsg:
		m.loading = false
		m.updated = msg.at
		m.err = msg.err
		if msg.err == nil {
			m.state = msg.state
		}
		return m, tea.Tick(m.interval, func(time.Time) tea.Msg { return pollMsg{} })

	case pollMsg:
		if m.loading {
			return m, nil
		}
		m.loading = true
		return m, m.fetch()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model
func (m WatchModel) View() string {
	var b strings.Builder
	b.WriteString(NewHeader("Watching", m.device, map[string]string{
		"Interval": m.interval.String(),
	}).SetWidth(m.width).Render())
	b.WriteString("\n\n")

	if m.state != nil {
		b.WriteString(StateTable(m.state).Render())
		b.WriteString("\n\n")
		b.WriteString("  ")
		b.WriteString(CurrentStateLabel(m.state.CurrentState))
		b.WriteString("\n\n")
	}

	if m.err != nil {
		b.WriteString(ErrorMessageStyle.Render("  " + FailureMarker + " " + m.err.Error()))
		b.WriteString("\n\n")
	}

	switch {
	case m.loading:
		b.WriteString(StatusStyle.Render(m.spinner.View() + " reading data points"))
	case !m.updated.IsZero():
		b.WriteString(StatusStyle.Render("updated " + m.updated.Format("15:04:05")))
	}
	b.WriteString("\n\n  ")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

// StateTable renders a snapshot as a name/value table in data point order
func StateTable(state *accessory.State) *Table {
	t := &Table{Headers: []string{"CHARACTERISTIC", "UID", "VALUE"}}
	for _, c := range accessory.Characteristics() {
		v, ok := state.Values[c.Name]
		if !ok {
			continue
		}
		t.AddRow(c.Name, fmt.Sprintf("%d", c.UID), formatValue(v))
	}
	return t
}

// CurrentStateLabel returns a colored description of a current state value
func CurrentStateLabel(state int) string {
	switch state {
	case accessory.CurrentHeating:
		return lipgloss.NewStyle().Foreground(HeatColor).Bold(true).Render("HEATING")
	case accessory.CurrentCooling:
		return lipgloss.NewStyle().Foreground(CoolColor).Bold(true).Render("COOLING")
	case accessory.CurrentIdle:
		return lipgloss.NewStyle().Foreground(TextColor).Render("IDLE")
	default:
		return lipgloss.NewStyle().Foreground(MutedColor).Render("INACTIVE")
	}
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
