package crm

import (
	"fmt"
	"strconv"
	"time"
)

// DateLayout renders the last contact date, e.g. "Jan 5 2021".
const DateLayout = "Jan 2 2006"

// Formatter names accepted by NewFormatter.
const (
	FormatterStatus    = "status"
	FormatterReplyFlag = "reply_flag"
)

// RowFormatter turns a Summary into the four output cells. A nil summary
// means the contact was never emailed.
type RowFormatter interface {
	Format(s *Summary, now time.Time, loc *time.Location) Fields
}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string) (RowFormatter, error) {
	switch name {
	case FormatterStatus, "":
		return StatusFormatter{}, nil
	case FormatterReplyFlag:
		return ReplyFlagFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown formatter %q", name)
	}
}

// StatusFormatter writes a human-readable reply status in the fourth column.
type StatusFormatter struct{}

func (StatusFormatter) Format(s *Summary, now time.Time, loc *time.Location) Fields {
	if s == nil {
		return NeverContacted
	}
	f := commonFields(s, now, loc)
	f[3] = s.Status.String()
	return f
}

// ReplyFlagFormatter writes "N" in the fourth column when the contact spoke
// last and I have not answered.
type ReplyFlagFormatter struct{}

func (ReplyFlagFormatter) Format(s *Summary, now time.Time, loc *time.Location) Fields {
	if s == nil {
		return NeverContacted
	}
	f := commonFields(s, now, loc)
	if s.Status.TheySpokeLast() {
		f[3] = "N"
	}
	return f
}

func commonFields(s *Summary, now time.Time, loc *time.Location) Fields {
	if loc == nil {
		loc = time.UTC
	}
	starred := ""
	if s.Starred {
		starred = "Y"
	}
	return Fields{
		s.LastContact.In(loc).Format(DateLayout),
		strconv.Itoa(DaysSince(now, s.LastContact)),
		starred,
		"",
	}
}
