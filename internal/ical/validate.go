package ical

import "strings"

// previewLimit bounds the diagnostic body preview in validation errors.
const previewLimit = 200

// Strictness selects how the VCALENDAR gate inspects a body.
type Strictness int

const (
	// Strict requires the trimmed body to start with BEGIN:VCALENDAR.
	Strict Strictness = iota
	// Lenient accepts begin:vcalendar anywhere, case-insensitively.
	Lenient
)

// Validate decides whether a fetched body is plausibly iCalendar data. This
// is a cheap syntactic gate, not a parse: its only job is to stop an HTML
// error page or similar junk from being sent to the model. Returns a
// *InvalidFeedContentError when the check fails.
func Validate(body string, strictness Strictness) error {
	switch strictness {
	case Strict:
		if strings.HasPrefix(strings.TrimSpace(body), "BEGIN:VCALENDAR") {
			return nil
		}
		return &InvalidFeedContentError{
			Reason:  "Invalid iCal feed: Does not start with BEGIN:VCALENDAR",
			Preview: Preview(body),
		}
	default:
		if strings.Contains(strings.ToLower(body), "begin:vcalendar") {
			return nil
		}
		return &InvalidFeedContentError{
			Reason:  "Fetched content is not valid iCalendar data (missing BEGIN:VCALENDAR)",
			Preview: Preview(body),
		}
	}
}

// Preview returns the first 200 characters of a body with newlines escaped,
// for diagnostic display.
func Preview(body string) string {
	if len(body) > previewLimit {
		body = body[:previewLimit]
	}
	body = strings.ReplaceAll(body, "\r", "\\r")
	return strings.ReplaceAll(body, "\n", "\\n")
}
