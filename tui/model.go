package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bassamadnan/sheetcrm/crm"
	"github.com/bassamadnan/sheetcrm/trigger"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const maxRecentRows = 500

// Model is the live watch screen: visited rows stream in as the scheduler
// runs, newest first, with the last run summarized in the status bar.
type Model struct {
	events       <-chan trigger.Event
	rows         <-chan crm.RowResult
	pollInterval time.Duration

	recent    []crm.RowResult
	offset    int
	lastRun   *trigger.Event
	runs      int
	failures  int
	monitorOn bool

	width, height int
	now           time.Time
}

func NewWatchModel(events <-chan trigger.Event, rows <-chan crm.RowResult, pollInterval time.Duration) Model {
	return Model{
		events:       events,
		rows:         rows,
		pollInterval: pollInterval,
		monitorOn:    true,
		now:          time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitForRunCmd(m.events),
		waitForRowCmd(m.rows),
		statusTickCmd(time.Second),
	)
}

func (m Model) listHeight() int {
	h := m.height - lipgloss.Height(TitleStyle.Render(" ")) - 1
	if h < 0 {
		return 0
	}
	return h
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "down", "j":
			if m.offset < len(m.recent)-1 {
				m.offset++
			}
		case "home", "g":
			m.offset = 0
		}

	case RowMsg:
		m.recent = append([]crm.RowResult{crm.RowResult(msg)}, m.recent...)
		if len(m.recent) > maxRecentRows {
			m.recent = m.recent[:maxRecentRows]
		}
		if m.offset > 0 {
			m.offset++ // keep the viewed rows in place
		}
		cmds = append(cmds, waitForRowCmd(m.rows))

	case RunMsg:
		ev := trigger.Event(msg)
		m.lastRun = &ev
		m.runs++
		if ev.Err != nil {
			m.failures++
		}
		cmds = append(cmds, waitForRunCmd(m.events))

	case MonitorStoppedMsg:
		m.monitorOn = false

	case StatusTickMsg:
		m.now = msg.Time
		cmds = append(cmds, statusTickCmd(time.Second))
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("sheetcrm watch · every %s", m.pollInterval)))
	b.WriteString("\n")

	height := m.listHeight()
	if len(m.recent) == 0 {
		b.WriteString(DetailStyle.Render("Waiting for the first scan..."))
		b.WriteString("\n")
	}
	for i := m.offset; i < len(m.recent) && i-m.offset < height; i++ {
		b.WriteString(m.renderRow(m.recent[i]))
		b.WriteString("\n")
	}

	b.WriteString(m.statusBar())
	return b.String()
}

func (m Model) renderRow(r crm.RowResult) string {
	width := m.width
	if width <= 0 {
		width = 100
	}
	num := RowNumberStyle.Render(fmt.Sprintf("%5d", r.Row))
	if r.Skipped {
		return num + " " + SkippedStyle.Render("(blank)")
	}

	addr := AddressStyle.Render(fmt.Sprintf("%-32s", truncate(r.Address, 32)))
	detail := truncate(describeFields(r.Fields), max(width-40, 10))
	switch {
	case r.Summary == nil:
		detail = NeverStyle.Render(detail)
	case r.Summary.Status.TheySpokeLast():
		detail = AwaitingStyle.Render(detail)
	default:
		detail = DetailStyle.Render(detail)
	}
	if r.Summary != nil && r.Summary.Starred {
		addr = StarStyle.Render("★") + addr
	} else {
		addr = " " + addr
	}
	return num + " " + addr + " " + detail
}

func (m Model) statusBar() string {
	style := StatusBarNormalStyle
	var text string
	switch {
	case !m.monitorOn:
		text = "Watch stopped"
	case m.lastRun == nil:
		text = "Waiting for first run"
	case m.lastRun.Err != nil:
		style = StatusBarErrorStyle
		text = fmt.Sprintf("Run failed: %s · retry in %s", truncate(m.lastRun.Err.Error(), 60), m.untilNext())
	default:
		style = StatusBarSuccessStyle
		text = fmt.Sprintf("%s · next in %s", describeReport(m.lastRun.Report), m.untilNext())
	}
	text = fmt.Sprintf("%s · runs %d (%d failed) · %s · q: quit", text, m.runs, m.failures, m.now.Format("15:04:05"))
	if m.width > 0 {
		return style.Width(m.width).Render(truncate(text, m.width-2))
	}
	return style.Render(text)
}

func (m Model) untilNext() string {
	if m.lastRun == nil {
		return "-"
	}
	d := m.lastRun.Next.Sub(m.now).Round(time.Second)
	if d < 0 {
		d = 0
	}
	return d.String()
}
