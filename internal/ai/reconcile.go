package ai

import (
	"strings"

	"github.com/thermoai/backend/internal/storage/models"
)

// Outcome classifies a validated extraction result.
type Outcome int

const (
	// OutcomeSuccess: events were extracted. Any error string is advisory.
	OutcomeSuccess Outcome = iota
	// OutcomeEmpty: the calendar is valid but holds no events.
	OutcomeEmpty
	// OutcomeError: a hard extraction failure to surface to the caller.
	OutcomeError
)

// benignEmptyPhrases are model error strings that actually describe a
// valid-but-empty calendar. The extraction prompt tells the model to leave
// the error unset in that case, but the model is permitted to phrase it as
// an error instead; that looseness is handled here rather than hidden in the
// prompt. Matching is case-insensitive substring.
var benignEmptyPhrases = []string{
	"no vevent",
	"no events found",
	"valid but contains no vevent",
	"valid but contains no events",
}

// IsBenignEmptyMessage reports whether a model error string describes a
// valid-but-empty calendar rather than a real failure.
func IsBenignEmptyMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, phrase := range benignEmptyPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Reconcile maps a validated {events, error} pair onto exactly one of the
// three final outcomes and returns the result as the caller should see it:
//
//   - events present: success. The error string, if any, is kept as an
//     advisory note.
//   - no events, no error (or a benign "no events" phrasing): valid-empty
//     success with the error cleared, so an end user is not shown a benign
//     message as a failure.
//   - no events, non-benign error: hard error, message preserved verbatim.
//
// The mapping is total: every possible input lands in exactly one branch.
func Reconcile(result *models.ExtractionResult) (Outcome, *models.ExtractionResult) {
	events := result.Events
	if events == nil {
		events = []models.BookingEvent{}
	}

	if len(events) > 0 {
		return OutcomeSuccess, &models.ExtractionResult{Events: events, Error: result.Error}
	}

	if result.Error == "" || IsBenignEmptyMessage(result.Error) {
		return OutcomeEmpty, &models.ExtractionResult{Events: events}
	}

	return OutcomeError, &models.ExtractionResult{Events: events, Error: result.Error}
}
