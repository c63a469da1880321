// Package tui renders the live stream dashboard. It is built on the
// bubbletea/lipgloss stack: a status pane for the connection and
// streaming state, a stream pane for rates and totals, refreshed every
// second from the telemetry hub.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rjboer/GoNetSDR/internal/telemetry"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			PaddingRight(1)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	okStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("2"))

	downStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("1"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingLeft(1)
)

const refreshInterval = time.Second

// Controller is the slice of the client the dashboard drives.
type Controller interface {
	StartIQ(ctx context.Context) error
	StopIQ(ctx context.Context) error
	Connected() bool
	IQStarted() bool
}

// tickMsg triggers a stats refresh.
type tickMsg time.Time

// statsMsg carries a freshly read hub snapshot.
type statsMsg struct {
	sample  telemetry.Sample
	have    bool
	summary telemetry.Summary
}

// actionMsg reports the outcome of a start/stop keypress.
type actionMsg struct {
	verb string
	err  error
}

// Model is the top-level bubbletea model for the dashboard.
type Model struct {
	hub     *telemetry.StatsHub
	ctrl    Controller
	sample  telemetry.Sample
	have    bool
	summary telemetry.Summary
	status  string
	width   int
}

// New returns a dashboard over the given hub and client.
func New(hub *telemetry.StatsHub, ctrl Controller) Model {
	return Model{hub: hub, ctrl: ctrl, status: "s start · x stop · q quit"}
}

// Init starts the refresh ticker and reads the first snapshot.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), readStats(m.hub))
}

// Update handles keypresses, ticks, and action results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "s":
			return m, runAction("start", m.ctrl.StartIQ)
		case "x":
			return m, runAction("stop", m.ctrl.StopIQ)
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(tick(), readStats(m.hub))

	case statsMsg:
		m.sample = msg.sample
		m.have = msg.have
		m.summary = msg.summary
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.verb, msg.err)
		} else {
			m.status = fmt.Sprintf("%s ok · s start · x stop · q quit", msg.verb)
		}
		return m, nil
	}
	return m, nil
}

// View renders the status and stream panes.
func (m Model) View() string {
	var b []string
	b = append(b, titleStyle.Render("GoNetSDR stream monitor"), "")

	connected := m.ctrl.Connected()
	started := m.ctrl.IQStarted()
	b = append(b, labelStyle.Render("Control:")+renderState(connected, "connected", "down"))
	b = append(b, labelStyle.Render("IQ stream:")+renderState(started, "running", "stopped"), "")

	if !m.have {
		b = append(b, dimStyle.Render("waiting for samples..."))
	} else {
		b = append(b,
			row("Datagrams", fmt.Sprintf("%d", m.sample.Datagrams)),
			row("Bytes", fmt.Sprintf("%d", m.sample.Bytes)),
			row("Dropped", fmt.Sprintf("%d", m.sample.Dropped)),
			row("Rate", fmt.Sprintf("%.0f dgram/s · %.0f B/s", m.sample.DatagramRate, m.sample.ByteRate)),
			row("Rate mean", fmt.Sprintf("%.0f dgram/s (σ %.0f, p95 %.0f)",
				m.summary.RateMean, m.summary.RateStdDev, m.summary.RateP95)),
		)
	}

	b = append(b, "", statusBarStyle.Render(m.status))
	return lipgloss.JoinVertical(lipgloss.Left, b...)
}

func row(label, value string) string {
	return labelStyle.Render(label+":") + valueStyle.Render(value)
}

func renderState(up bool, upText, downText string) string {
	if up {
		return okStyle.Render(upText)
	}
	return downStyle.Render(downText)
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func readStats(hub *telemetry.StatsHub) tea.Cmd {
	return func() tea.Msg {
		sample, have := hub.Latest()
		return statsMsg{sample: sample, have: have, summary: hub.Summarize()}
	}
}

func runAction(verb string, action func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return actionMsg{verb: verb, err: action(ctx)}
	}
}
