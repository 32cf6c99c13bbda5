package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrEmptyTranscript is returned when the transcription service answers without text
var ErrEmptyTranscript = errors.New("no transcript received")

// StatusError is a non-2xx answer from the storefront service
type StatusError struct {
	StatusCode int
	Message    string // server-provided "error" field, may be empty
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP error %d", e.StatusCode)
}

// errorBody is the {"error": "..."} failure payload
type errorBody struct {
	Error string `json:"error"`
}

// ParseStatusError builds a StatusError from a failed response.
// Bodies that are not the error JSON leave Message empty.
func ParseStatusError(statusCode int, body []byte) *StatusError {
	statusErr := &StatusError{StatusCode: statusCode}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		statusErr.Message = eb.Error
	}

	return statusErr
}

// MessageFor returns the server-provided message carried by err, or fallback
func MessageFor(err error, fallback string) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message
	}
	return fallback
}
