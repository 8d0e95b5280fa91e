package crm

import (
	"context"
	"strings"
	"time"
)

// Message is a single email inside a Thread.
type Message struct {
	ID      string
	From    string // Raw From header, e.g. "Jane Doe <jane@example.com>"
	Date    time.Time
	Starred bool
}

// Thread is a conversation returned by a ThreadSource. Messages are in
// chronological order, so the last element is the last speaker.
type Thread struct {
	ID            string
	LastMessageAt time.Time
	Messages      []Message
}

// HasStarredMessages reports whether any message in the thread is starred.
func (t Thread) HasStarredMessages() bool {
	for _, m := range t.Messages {
		if m.Starred {
			return true
		}
	}
	return false
}

// LastMessage returns the most recent message, or false for an empty thread.
func (t Thread) LastMessage() (Message, bool) {
	if len(t.Messages) == 0 {
		return Message{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}

// Rows is a snapshot of the contact sheet taken at the start of a scan.
type Rows struct {
	// Total is the last row number with content, header included.
	Total int
	// Addresses[i] holds the address cell of sheet row i+2.
	Addresses []string
	// Location is the display time zone of the sheet.
	Location *time.Location
}

// Address returns the trimmed address of a 1-indexed sheet row. Rows outside
// the snapshot read as blank.
func (r *Rows) Address(row int) string {
	idx := row - 2
	if idx < 0 || idx >= len(r.Addresses) {
		return ""
	}
	return strings.TrimSpace(r.Addresses[idx])
}

// Fields are the four output cells written for a row: last contact date,
// days since contact, starred flag and reply status.
type Fields [4]string

// NeverContacted is written when no thread exists with the contact.
var NeverContacted = Fields{"NEVER", "", "", ""}

// RowStore reads the contact sheet and writes a row's output cells.
type RowStore interface {
	Load(ctx context.Context) (*Rows, error)
	WriteOutput(ctx context.Context, row int, fields Fields) error
}

// CursorStore persists the resume cursor with an expiry.
type CursorStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string, ttl time.Duration) error
}

// ThreadSource finds conversation threads between the mailbox owner and another address.
type ThreadSource interface {
	SearchThreads(ctx context.Context, self, other string) ([]Thread, error)
}

// Identity supplies the mailbox owner's address.
type Identity interface {
	SelfAddress(ctx context.Context) (string, error)
}

// StaticIdentity is an Identity with a fixed address, used when the address
// is configured rather than discovered.
type StaticIdentity string

func (s StaticIdentity) SelfAddress(context.Context) (string, error) {
	return string(s), nil
}
