package ai

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/thermoai/backend/internal/storage/models"
)

// unexpectedFormatMessage is returned when the model claimed events but none
// survived field-level validation. It distinguishes "model returned garbage"
// from a legitimately empty calendar.
const unexpectedFormatMessage = "AI returned event data in an unexpected format. Please check iCal feed structure and content."

// Extractor turns raw feed text into a validated ExtractionResult by way of
// the generative-model collaborator.
type Extractor struct {
	gen Generator
}

// NewExtractor creates an extractor over the given generator.
func NewExtractor(gen Generator) *Extractor {
	return &Extractor{gen: gen}
}

// Extract builds the extraction prompt for the feed body, submits it, and
// validates the response. The returned result may carry both events and an
// error string; reconciling that pair into a final outcome is the caller's
// job. The error return is reserved for hard failures: the model call itself
// failing (*ModelUnavailableError) or an unparseable reply
// (*MalformedResponseError).
func (e *Extractor) Extract(ctx context.Context, icalContent string) (*models.ExtractionResult, error) {
	raw, err := e.gen.Generate(ctx, BuildExtractionPrompt(icalContent))
	if err != nil {
		return nil, err
	}

	var parsed models.ExtractionResult
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, &MalformedResponseError{Raw: raw, Cause: err}
	}

	validated := make([]models.BookingEvent, 0, len(parsed.Events))
	for _, event := range parsed.Events {
		if err := validateEvent(&event); err != nil {
			log.Printf("Dropping invalid event from AI response (uid=%q): %v", event.UID, err)
			continue
		}
		validated = append(validated, event)
	}

	// The model claimed events but every one failed validation: surface a
	// format mismatch instead of a clean empty result.
	if len(validated) == 0 && parsed.Error == "" && len(parsed.Events) > 0 {
		return &models.ExtractionResult{
			Events: []models.BookingEvent{},
			Error:  unexpectedFormatMessage,
		}, nil
	}

	return &models.ExtractionResult{Events: validated, Error: parsed.Error}, nil
}

// validateEvent checks one claimed event against the BookingEvent schema.
// Entries that fail are dropped without failing the batch.
func validateEvent(e *models.BookingEvent) error {
	if e.UID == "" {
		return errMissing("uid")
	}
	if e.Summary == "" {
		return errMissing("summary")
	}

	start, err := time.Parse(time.RFC3339, e.StartDate)
	if err != nil {
		return errField("startDate", err)
	}
	end, err := time.Parse(time.RFC3339, e.EndDate)
	if err != nil {
		return errField("endDate", err)
	}

	// The prompt asks the model to guarantee ordering; re-check instead of
	// trusting it. Equal start and end is allowed: a one-night date-only
	// booking can collapse to zero length under the prompt's
	// end-of-previous-day rule.
	if end.Before(start) {
		return errOrdering(start, end)
	}

	return nil
}

type fieldError struct {
	msg string
}

func (e *fieldError) Error() string { return e.msg }

func errMissing(field string) error {
	return &fieldError{msg: "missing required field " + field}
}

func errField(field string, cause error) error {
	return &fieldError{msg: field + " is not a valid ISO 8601 timestamp: " + cause.Error()}
}

func errOrdering(start, end time.Time) error {
	return &fieldError{msg: "endDate " + end.Format(time.RFC3339) + " precedes startDate " + start.Format(time.RFC3339)}
}
