package tui

import (
	"time"

	"github.com/bassamadnan/sheetcrm/crm"
	"github.com/bassamadnan/sheetcrm/trigger"
	tea "github.com/charmbracelet/bubbletea"
)

// waitForRunCmd listens on the event channel and re-queues itself from Update
// until the channel is closed.
func waitForRunCmd(events <-chan trigger.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return MonitorStoppedMsg{}
		}
		return RunMsg(ev)
	}
}

// waitForRowCmd listens for per-row progress. A closed channel yields no message.
func waitForRowCmd(rows <-chan crm.RowResult) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-rows
		if !ok {
			return nil
		}
		return RowMsg(r)
	}
}

// statusTickCmd creates a ticker for updating the status bar periodically.
func statusTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return StatusTickMsg{Time: t}
	})
}
