package common

import (
	"regexp"
	"strings"
	"time"
)

// dateFormats are tried in order; layouts without a zone parse as UTC
var dateFormats = []string{
	time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999Z", "2006-01-02T15:04:05",
	"2006-01-02T15:04", "2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02",
	time.RFC1123Z, time.RFC1123,
	"Mon, Jan 2, 2006 3:04 PM", "Monday, January 2, 2006 3:04 PM",
	"Mon, Jan 2, 3:04 PM 2006",
	"Jan 2, 2006 3:04 PM", "January 2, 2006 3:04 PM", "Jan 2, 2006, 3:04 PM",
	"January 2, 2006", "Jan 2, 2006",
	"02 Jan 2006 15:04", "02 Jan 2006", "2 January 2006",
	"2006/01/02", "01/02/2006",
}

var (
	ordinalRe    = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeDateTime parses a timestamp leniently and returns it as RFC3339.
// Values without zone information are taken as UTC. Unparseable values are
// returned trimmed rather than dropped; empty input returns "".
func NormalizeDateTime(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if t, ok := ParseDateTime(raw); ok {
		return t.Format(time.RFC3339)
	}
	return raw
}

// ParseDateTime tries every known layout against raw
func ParseDateTime(raw string) (time.Time, bool) {
	candidate := multiSpaceRe.ReplaceAllString(strings.TrimSpace(raw), " ")
	candidate = ordinalRe.ReplaceAllString(candidate, "$1")
	candidate = strings.ReplaceAll(candidate, " at ", " ")

	for _, format := range dateFormats {
		if t, err := time.Parse(format, candidate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
