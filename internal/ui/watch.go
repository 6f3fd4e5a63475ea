package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/integra-bridge/internal/accessory"
	"github.com/muurk/integra-bridge/internal/protocol"
)

// ZonesMsg delivers a new violated zones snapshot to the watch model
type ZonesMsg protocol.ZoneStates

// StreamClosedMsg reports that the zone stream ended
type StreamClosedMsg struct{}

// PollStatus summarises executor failures for the footer
type PollStatus struct {
	Failed    uint64
	LastError string
}

// statusMsg carries a refreshed PollStatus
type statusMsg PollStatus

const statusInterval = time.Second

// WatchModel is a Bubble Tea model showing live zone states.
type WatchModel struct {
	title   string
	zones   *accessory.Set
	updates <-chan protocol.ZoneStates
	status  func() PollStatus

	spinner  spinner.Model
	poll     PollStatus
	current  protocol.ZoneStates
	received bool
	updated  time.Time
	changes  int
	closed   bool
	width    int
}

// NewWatchModel creates a watch model reading snapshots from updates.
// status is polled once a second for failures; it may be nil.
func NewWatchModel(title string, zones *accessory.Set, updates <-chan protocol.ZoneStates, status func() PollStatus) WatchModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return WatchModel{
		title:   title,
		zones:   zones,
		updates: updates,
		status:  status,
		spinner: s,
		width:   GetTerminalWidth(),
	}
}

// waitForZones turns the next channel receive into a message
func waitForZones(updates <-chan protocol.ZoneStates) tea.Cmd {
	return func() tea.Msg {
		zones, ok := <-updates
		if !ok {
			return StreamClosedMsg{}
		}
		return ZonesMsg(zones)
	}
}

// refreshStatus samples status after statusInterval
func refreshStatus(status func() PollStatus) tea.Cmd {
	if status == nil {
		return nil
	}
	return tea.Tick(statusInterval, func(time.Time) tea.Msg {
		return statusMsg(status())
	})
}

// Init implements tea.Model
func (m WatchModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForZones(m.updates), refreshStatus(m.status))
}

// Update implements tea.Model
func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case ZonesMsg:
		zones := protocol.ZoneStates(msg)
		if m.received && !zones.Equal(m.current) {
			m.changes++
		}
		m.current = zones
		m.received = true
		m.updated = time.Now()
		return m, waitForZones(m.updates)
	case statusMsg:
		m.poll = PollStatus(msg)
		return m, refreshStatus(m.status)
	case StreamClosedMsg:
		m.closed = true
		return m, tea.Quit
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

	b.WriteString(HeaderTitleStyle.Render(strings.ToUpper(m.title)))
	b.WriteString("\n\n")

	if !m.received {
		if m.closed {
			b.WriteString(FooterStyle.Render("Zone stream closed before the first poll"))
		} else {
			b.WriteString("  " + m.spinner.View() + " Waiting for the first zone poll...")
		}
		b.WriteString("\n")
		if line := m.failureLine(); line != "" {
			b.WriteString("\n" + ErrorMessageStyle.Render(line) + "\n")
		}
		return b.String()
	}

	b.WriteString(RenderZoneTable(m.zones.States(m.current), m.zones.Unconfigured(m.current)))
	b.WriteString("\n\n")

	footer := fmt.Sprintf("%s updated %s · %d change(s) · q to quit",
		m.spinner.View(), m.updated.Format("15:04:05"), m.changes)
	b.WriteString(FooterStyle.Render(footer))
	b.WriteString("\n")
	if line := m.failureLine(); line != "" {
		b.WriteString(ErrorMessageStyle.Render(line) + "\n")
	}
	return b.String()
}

// failureLine describes the current failure streak, empty when the last
// command succeeded.
func (m WatchModel) failureLine() string {
	if m.poll.LastError == "" {
		return ""
	}
	return fmt.Sprintf("%d failed command(s), last error: %s", m.poll.Failed, m.poll.LastError)
}

// Current returns the last snapshot shown
func (m WatchModel) Current() (protocol.ZoneStates, bool) {
	return m.current, m.received
}

// RunWatch runs the watch TUI until the user quits or updates closes.
func RunWatch(title string, zones *accessory.Set, updates <-chan protocol.ZoneStates, status func() PollStatus) error {
	p := tea.NewProgram(NewWatchModel(title, zones, updates, status))
	_, err := p.Run()
	return err
}
