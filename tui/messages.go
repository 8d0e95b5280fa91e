package tui

import (
	"time"

	"github.com/bassamadnan/sheetcrm/crm"
	"github.com/bassamadnan/sheetcrm/trigger"
)

// A message carrying one visited row.
type RowMsg crm.RowResult

// A message carrying the outcome of one scan invocation.
type RunMsg trigger.Event

// A message for timed status updates.
type StatusTickMsg struct{ Time time.Time }

// Message to signal that the trigger has stopped and no more runs will arrive.
type MonitorStoppedMsg struct{}
