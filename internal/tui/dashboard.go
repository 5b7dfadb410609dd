// Package tui is the optional `tmuxmon --watch` live dashboard: a
// read-only Bubble Tea subscriber over the engine's pubsub broker,
// mirroring the teacher's own Bubble Tea board (internal/ui/board) in
// Model/Update/View shape but rendering pane roles/statuses instead of a
// beads kanban board.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/tettuan/tmux-monitor/internal/engine"
	"github.com/tettuan/tmux-monitor/internal/pubsub"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)
)

// Model renders the engine's latest pane snapshot and most recent status
// report. It never mutates the Engine; it only reads Snapshot() and
// subscribes to Broker() for refresh triggers.
type Model struct {
	eng        *engine.Engine
	listener   *pubsub.ContinuousListener[engine.Payload]
	rows       table.Model
	reportBody string
	state      string
	width      int
	height     int
}

// New builds a dashboard Model over a running (or about-to-run) Engine.
func New(ctx context.Context, eng *engine.Engine) Model {
	columns := []table.Column{
		{Title: "Pane", Width: 8},
		{Title: "Role", Width: 16},
		{Title: "Status", Width: 12},
	}
	t := table.New(table.WithColumns(columns), table.WithFocused(false))

	return Model{
		eng:      eng,
		listener: pubsub.NewContinuousListener(ctx, eng.Broker()),
		rows:     t,
		state:    eng.State().String(),
	}
}

// Init starts listening for engine events.
func (m Model) Init() tea.Cmd {
	return m.listener.Listen()
}

func (m Model) refreshRows() table.Model {
	snapshot := m.eng.Snapshot()
	rows := make([]table.Row, 0, len(snapshot))
	for _, p := range snapshot {
		rows = append(rows, table.Row{p.ID, p.Role, p.Status})
	}
	m.rows.SetRows(rows)
	return m.rows
}

// Update handles incoming broker events and key presses (q/ctrl+c to quit).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rows.SetWidth(msg.Width)
	case pubsub.Event[engine.Payload]:
		m.state = msg.Payload.State.String()
		if msg.Type == engine.EventReportSent {
			if rendered, err := glamour.Render(msg.Payload.ReportText, "dark"); err == nil {
				m.reportBody = rendered
			} else {
				m.reportBody = msg.Payload.ReportText
			}
		}
		m.rows = m.refreshRows()
		return m, m.listener.Listen()
	}
	return m, nil
}

// View renders the pane table, the last status report, and the current
// engine state.
func (m Model) View() string {
	header := headerStyle.Render("tmuxmon — live pane status")
	footer := footerStyle.Render("state: " + m.state + "  (q to detach)")
	return header + "\n\n" + m.rows.View() + "\n\n" + m.reportBody + "\n" + footer
}

// Run blocks until the user quits the dashboard (q/ctrl+c).
func Run(eng *engine.Engine) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p := tea.NewProgram(New(ctx, eng))
	_, err := p.Run()
	return err
}
