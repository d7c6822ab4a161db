package leanvox

import (
	"encoding/json"
	"fmt"
)

// Error is the generic API error, returned for statuses that have no more
// specific type.
type Error struct {
	Message string
	Code    string
	Status  int
	Body    []byte
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("API error (%d): %s", e.Status, e.Message)
	}
	return e.Message
}

// InvalidCredentialError is returned when an API key is empty or does not
// carry a recognized prefix.
type InvalidCredentialError struct {
	Message string
}

func (e *InvalidCredentialError) Error() string {
	if e.Message == "" {
		return "invalid API key"
	}
	return e.Message
}

// MissingCredentialError is returned on first network use when no API key
// could be resolved from any source.
type MissingCredentialError struct {
	Message string
}

func (e *MissingCredentialError) Error() string {
	if e.Message == "" {
		return "no API key provided"
	}
	return e.Message
}

// InvalidRequestError is returned for client-side validation failures and
// HTTP 400 responses.
type InvalidRequestError struct {
	Message string
	Code    string
	Status  int
	Body    []byte
}

func (e *InvalidRequestError) Error() string {
	return e.Message
}

// StreamingFormatError is returned when a non-MP3 format is requested for a
// streaming call. It is a streaming-specific refinement of an invalid
// request and is raised before any network I/O.
type StreamingFormatError struct {
	Message string
	Code    string
	Status  int
}

func (e *StreamingFormatError) Error() string {
	if e.Message == "" {
		return "streaming only supports MP3 format"
	}
	return e.Message
}

// AuthenticationError is returned for HTTP 401 responses.
type AuthenticationError struct {
	Message string
	Code    string
	Status  int
	Body    []byte
}

func (e *AuthenticationError) Error() string {
	if e.Message == "" {
		return "invalid or missing API key"
	}
	return e.Message
}

// InsufficientBalanceError is returned for HTTP 402 responses.
type InsufficientBalanceError struct {
	Message      string
	Code         string
	Status       int
	Body         []byte
	BalanceCents float64
}

func (e *InsufficientBalanceError) Error() string {
	if e.Message == "" {
		return "insufficient balance"
	}
	return e.Message
}

// NotFoundError is returned for HTTP 404 responses.
type NotFoundError struct {
	Message string
	Code    string
	Status  int
	Body    []byte
}

func (e *NotFoundError) Error() string {
	if e.Message == "" {
		return "resource not found"
	}
	return e.Message
}

// RateLimitError is returned for HTTP 429 responses once retries for the
// call are exhausted. RetryAfter carries the server's hint in seconds.
type RateLimitError struct {
	Message    string
	Code       string
	Status     int
	Body       []byte
	RetryAfter float64
}

func (e *RateLimitError) Error() string {
	if e.Message == "" {
		return "rate limit exceeded"
	}
	return e.Message
}

// ServerError is returned for HTTP 500 responses once retries for the call
// are exhausted.
type ServerError struct {
	Message string
	Code    string
	Status  int
	Body    []byte
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("internal server error (%d)", e.Status)
	}
	return e.Message
}

// ConnectionError is returned when the transport fails after all retries
// are exhausted. No HTTP response was received, so there is no status.
type ConnectionError struct {
	Message string
	Err     error
}

func (e *ConnectionError) Error() string {
	if e.Message == "" {
		return "failed to connect to the API"
	}
	return e.Message
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// errorDetail is the inner error object of an API failure body.
type errorDetail struct {
	Message      string  `json:"message"`
	Code         string  `json:"code"`
	RetryAfter   float64 `json:"retry_after"`
	BalanceCents float64 `json:"balance_cents"`
}

type errorEnvelope struct {
	Error errorDetail `json:"error"`
}

// retryableStatuses are retried until the call's retry budget is exhausted.
var retryableStatuses = map[int]bool{
	429: true,
	500: true,
	502: true,
	503: true,
	504: true,
}

// parseErrorBody decodes an API failure body of the shape
// {"error": {"message", "code", ...}}. Absent or unparseable bodies
// synthesize a message rather than failing; this function never errors.
func parseErrorBody(status int, body []byte) errorDetail {
	var env errorEnvelope
	if len(body) > 0 {
		if err := json.Unmarshal(body, &env); err != nil || env.Error == (errorDetail{}) {
			// Some endpoints return the detail at the top level.
			var top errorDetail
			if err := json.Unmarshal(body, &top); err == nil && top != (errorDetail{}) {
				env.Error = top
			}
		}
	}
	if env.Error.Message == "" {
		env.Error.Message = fmt.Sprintf("API error %d", status)
	}
	if env.Error.Code == "" {
		env.Error.Code = "unknown"
	}
	return env.Error
}

// classify maps a failure response to its typed error and reports whether
// the status is retryable. The executor retries while the status is
// retryable and budget remains; the returned error is what surfaces once
// it stops.
func classify(status int, body []byte) (bool, error) {
	detail := parseErrorBody(status, body)

	var err error
	switch status {
	case 400:
		err = &InvalidRequestError{Message: detail.Message, Code: detail.Code, Status: status, Body: body}
	case 401:
		err = &AuthenticationError{Message: detail.Message, Code: detail.Code, Status: status, Body: body}
	case 402:
		err = &InsufficientBalanceError{Message: detail.Message, Code: detail.Code, Status: status, Body: body, BalanceCents: detail.BalanceCents}
	case 404:
		err = &NotFoundError{Message: detail.Message, Code: detail.Code, Status: status, Body: body}
	case 429:
		err = &RateLimitError{Message: detail.Message, Code: detail.Code, Status: status, Body: body, RetryAfter: detail.RetryAfter}
	case 500:
		err = &ServerError{Message: detail.Message, Code: detail.Code, Status: status, Body: body}
	default:
		err = &Error{Message: detail.Message, Code: detail.Code, Status: status, Body: body}
	}

	return retryableStatuses[status], err
}
