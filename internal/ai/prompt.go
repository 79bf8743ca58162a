package ai

import "fmt"

// extractionPromptTemplate is the fixed instruction given to the model. The
// feed body is interpolated verbatim. The instruction allows the model to
// phrase "valid but empty" either as an empty events list with no error or,
// loosely, as an error string; the reconciler sorts that out downstream.
const extractionPromptTemplate = `You are an expert iCalendar data parser. Given the following iCalendar (.ics) data, extract all VEVENT components.
For each VEVENT, provide:
- uid: The unique identifier (UID property).
- summary: The event summary (SUMMARY property).
- startDate: The event start date and time (DTSTART property). Convert this to a full ISO 8601 format (YYYY-MM-DDTHH:mm:ss.sssZ). If a TZID is present (e.g., DTSTART;TZID=America/New_York:20240820T140000), ensure the time is correctly converted to UTC. If the date is a date-only value (e.g., DTSTART;VALUE=DATE:20240820), assume it starts at midnight UTC (YYYY-MM-DDT00:00:00.000Z).
- endDate: The event end date and time (DTEND property). Convert this to a full ISO 8601 format (YYYY-MM-DDTHH:mm:ss.sssZ). If a TZID is present, ensure the time is correctly converted to UTC. If the date is a date-only value (e.g., DTEND;VALUE=DATE:20240821), assume it ends at the beginning of that day UTC (YYYY-MM-DDT00:00:00.000Z), effectively meaning the event lasts until the end of the previous day.
- description: The event description (DESCRIPTION property), if present.
- location: The event location (LOCATION property), if present.

Return only events that have a DTSTART.
Ensure all dates are in strict ISO 8601 UTC format (ending with 'Z').

Output the result as a JSON object matching this structure: { "events": [{ "uid": "...", "summary": "...", "startDate": "...", "endDate": "...", "description": "optional", "location": "optional" }], "error": "optional error message" }.
If there are parsing errors or the iCalendar data is structurally invalid (e.g., malformed VCALENDAR structure), set the 'error' field in the output with a descriptive message and return an empty events list.
If the iCalendar data is valid but simply contains no VEVENT components (or no VEVENTs with a DTSTART property), then return an empty 'events' list and do not set the 'error' field.
Otherwise, return the list of events and omit the 'error' field.

iCalendar Data:
` + "```\n%s\n```\n"

// BuildExtractionPrompt interpolates the raw feed body into the fixed
// extraction instruction.
func BuildExtractionPrompt(icalContent string) string {
	return fmt.Sprintf(extractionPromptTemplate, icalContent)
}
