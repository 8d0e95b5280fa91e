package gmail

import (
	"strings"
	"time"
)

const (
	user         = "me"
	starredLabel = "STARRED"

	// AddressPlaceholder is replaced by the contact address in query templates.
	AddressPlaceholder = "{address}"

	// DefaultQuery matches threads in either direction between me and the contact.
	DefaultQuery = "(from:me to:{address}) OR (from:{address} to:me)"
	// SentOnlyQuery matches only threads I started or replied to.
	SentOnlyQuery = "from:me to:{address}"
)

// BuildQuery fills the contact address into a query template.
func BuildQuery(template, address string) string {
	return strings.ReplaceAll(template, AddressPlaceholder, strings.TrimSpace(address))
}

// Header date formats seen in the wild, tried in order.
var dateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
}

var fallbackLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	time.RFC822,
}

// parseDate parses a Date header. A trailing "(Zone)" comment is stripped
// before the fallback layouts are tried.
func parseDate(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	noTZParen := value
	if openParen := strings.LastIndex(noTZParen, " ("); openParen != -1 {
		if closeParen := strings.LastIndex(noTZParen, ")"); closeParen > openParen {
			noTZParen = noTZParen[:openParen] + noTZParen[closeParen+1:]
		}
	}
	noTZParen = strings.TrimSpace(noTZParen)
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, noTZParen); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
