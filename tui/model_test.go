package tui

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bassamadnan/sheetcrm/crm"
	"github.com/bassamadnan/sheetcrm/trigger"
)

func newTestModel() Model {
	m := NewWatchModel(make(chan trigger.Event), make(chan crm.RowResult), time.Minute)
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 20})
	return updated.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	out, ok := updated.(Model)
	require.True(t, ok)
	return out
}

func TestModelRowsNewestFirst(t *testing.T) {
	m := newTestModel()
	m = update(t, m, RowMsg{Row: 2, Address: "a@example.com", Fields: crm.NeverContacted})
	m = update(t, m, RowMsg{Row: 3, Skipped: true})

	require.Len(t, m.recent, 2)
	assert.Equal(t, 3, m.recent[0].Row)
	assert.Equal(t, 2, m.recent[1].Row)

	view := m.View()
	assert.Contains(t, view, "a@example.com")
	assert.Contains(t, view, "never contacted")
	assert.Contains(t, view, "(blank)")
}

func TestModelCapsRecentRows(t *testing.T) {
	m := newTestModel()
	for i := 0; i < maxRecentRows+10; i++ {
		m = update(t, m, RowMsg{Row: i + 2, Skipped: true})
	}
	assert.Len(t, m.recent, maxRecentRows)
	assert.Equal(t, maxRecentRows+11, m.recent[0].Row)
}

func TestModelRunEvents(t *testing.T) {
	m := newTestModel()
	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
	m = update(t, m, StatusTickMsg{Time: now})

	m = update(t, m, RunMsg{
		Report: &crm.Report{TotalRows: 10, Cursor: 5, Enriched: 2, Skipped: 1, Never: 1, Stop: crm.StopBudget},
		Next:   now.Add(30 * time.Second),
	})
	assert.Equal(t, 1, m.runs)
	assert.Equal(t, 0, m.failures)
	bar := m.statusBar()
	assert.Contains(t, bar, "2 enriched")
	assert.Contains(t, bar, "cursor 5/10")
	assert.Contains(t, bar, "next in 30s")

	m = update(t, m, RunMsg{Err: errors.New("quota exceeded"), Next: now.Add(time.Minute)})
	assert.Equal(t, 2, m.runs)
	assert.Equal(t, 1, m.failures)
	assert.Contains(t, m.statusBar(), "quota exceeded")
}

func TestModelMonitorStopped(t *testing.T) {
	m := update(t, newTestModel(), MonitorStoppedMsg{})
	assert.False(t, m.monitorOn)
	assert.Contains(t, m.statusBar(), "Watch stopped")
}

func TestModelScrollAndQuit(t *testing.T) {
	m := newTestModel()
	for i := 0; i < 3; i++ {
		m = update(t, m, RowMsg{Row: i + 2, Skipped: true})
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.offset)
	m = update(t, m, RowMsg{Row: 9, Skipped: true})
	assert.Equal(t, 2, m.offset, "new rows keep the scrolled view in place")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, m.offset)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestWaitCommands(t *testing.T) {
	events := make(chan trigger.Event, 1)
	events <- trigger.Event{Err: errors.New("boom")}
	close(events)

	msg := waitForRunCmd(events)()
	run, ok := msg.(RunMsg)
	require.True(t, ok)
	assert.EqualError(t, run.Err, "boom")
	assert.IsType(t, MonitorStoppedMsg{}, waitForRunCmd(events)())

	rows := make(chan crm.RowResult)
	close(rows)
	assert.Nil(t, waitForRowCmd(rows)())
}
