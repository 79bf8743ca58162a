package ai

import "fmt"

// ModelUnavailableError reports that the generative-model call itself failed
// (quota, timeout, network). Terminal for the current sync attempt.
type ModelUnavailableError struct {
	Cause error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("AI model call failed: %v", e.Cause)
}

func (e *ModelUnavailableError) Unwrap() error {
	return e.Cause
}

// MalformedResponseError reports that the model replied but not with
// parseable JSON. Terminal for the current sync attempt.
type MalformedResponseError struct {
	Raw   string
	Cause error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("AI response was not valid JSON: %v", e.Cause)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}
