package ical

import "fmt"

// FetchError reports a network or HTTP failure reaching a feed. A failed
// fetch is terminal for that feed's sync attempt; there are no retries.
type FetchError struct {
	Status     int
	StatusText string
	Cause      error
}

func (e *FetchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to fetch iCal feed: %v", e.Cause)
	}
	return fmt.Sprintf("failed to fetch iCal feed: %d %s", e.Status, e.StatusText)
}

func (e *FetchError) Unwrap() error {
	return e.Cause
}

// InvalidFeedContentError reports that a fetched body does not look like
// iCalendar data. Raised before the model call, so a bad feed costs nothing.
type InvalidFeedContentError struct {
	Reason  string
	Preview string
}

func (e *InvalidFeedContentError) Error() string {
	return fmt.Sprintf("%s. Content preview (first %d chars): '%s'", e.Reason, previewLimit, e.Preview)
}
