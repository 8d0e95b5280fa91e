package crm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

const oneDay = 24 * time.Hour

// ReplyStatus describes who spoke last in the most recent thread.
type ReplyStatus int

// Reply statuses, from the contact's point of view first. "No reply" means the
// thread has a single message.
const (
	TheyWroteNoReply ReplyStatus = iota
	ExchangeTheyRepliedLast
	IWroteNoReply
	ExchangeIRepliedLast
	NeitherRepliedLast
)

func (s ReplyStatus) String() string {
	switch s {
	case TheyWroteNoReply:
		return "They emailed me, I haven't replied"
	case ExchangeTheyRepliedLast:
		return "We had an email exchange, they replied last"
	case IWroteNoReply:
		return "I emailed them, they haven't replied"
	case ExchangeIRepliedLast:
		return "We had an email exchange, I replied last"
	default:
		return "We were on a thread together, neither of us replied last"
	}
}

// TheySpokeLast reports whether the other party sent the last message.
func (s ReplyStatus) TheySpokeLast() bool {
	return s == TheyWroteNoReply || s == ExchangeTheyRepliedLast
}

// Summary is the correspondence state derived from the most recent thread.
type Summary struct {
	ThreadID     string
	LastContact  time.Time
	Starred      bool
	Status       ReplyStatus
	MessageCount int
	LastSender   string
	ThreadsSeen  int
}

// AddressesMatch reports whether header mentions address, ignoring case.
// Matching is by containment so "Jane <JANE@x.com>" matches "jane@x.com".
// An empty address never matches.
func AddressesMatch(header, address string) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}
	return strings.Contains(strings.ToLower(header), strings.ToLower(address))
}

// DaysSince returns the whole number of days between now and t, rounded to
// the nearest day. The sign is dropped, so future timestamps count too.
func DaysSince(now, t time.Time) int {
	return int(math.Round(math.Abs(float64(now.Sub(t)) / float64(oneDay))))
}

// Lookup summarizes correspondence with a contact.
type Lookup struct {
	source ThreadSource
}

func NewLookup(source ThreadSource) *Lookup {
	return &Lookup{source: source}
}

// Summarize returns the summary for the correspondence between self and other,
// or nil when no thread exists.
func (l *Lookup) Summarize(ctx context.Context, self, other string) (*Summary, error) {
	threads, err := l.source.SearchThreads(ctx, self, other)
	if err != nil {
		return nil, fmt.Errorf("searching threads with %s: %w", other, err)
	}
	return Summarize(threads, self, other), nil
}

// Summarize picks the thread with the latest last-message time and derives the
// summary from it alone. On equal timestamps the first thread wins.
func Summarize(threads []Thread, self, other string) *Summary {
	var latest *Thread
	for i := range threads {
		if latest == nil || threads[i].LastMessageAt.After(latest.LastMessageAt) {
			latest = &threads[i]
		}
	}
	if latest == nil {
		return nil
	}

	s := &Summary{
		ThreadID:     latest.ID,
		LastContact:  latest.LastMessageAt,
		Starred:      latest.HasStarredMessages(),
		MessageCount: len(latest.Messages),
		ThreadsSeen:  len(threads),
		Status:       NeitherRepliedLast,
	}
	last, ok := latest.LastMessage()
	if !ok {
		return s
	}
	s.LastSender = last.From

	single := s.MessageCount == 1
	switch {
	case AddressesMatch(last.From, other):
		if single {
			s.Status = TheyWroteNoReply
		} else {
			s.Status = ExchangeTheyRepliedLast
		}
	case AddressesMatch(last.From, self):
		if single {
			s.Status = IWroteNoReply
		} else {
			s.Status = ExchangeIRepliedLast
		}
	}
	return s
}
