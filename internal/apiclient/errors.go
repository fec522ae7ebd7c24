package apiclient

import "fmt"

// Error codes used when the backend response carries none, or when the
// failure happened before a response existed.
const (
	// CodeUnknown is the fallback for non-2xx responses without a
	// machine-readable code in the body.
	CodeUnknown = "UNKNOWN_ERROR"

	// CodeNetwork indicates the request was sent but no HTTP response
	// came back (DNS failure, refused connection, timeout).
	CodeNetwork = "NETWORK_ERROR"

	// CodeRequest indicates the request could not be constructed or
	// serialized; nothing reached the wire.
	CodeRequest = "REQUEST_ERROR"
)

// APIError is the single error type returned by all backend calls.
// Callers branch on StatusCode and Code rather than on error identity.
type APIError struct {
	// Message is a human-readable description of the failure.
	Message string `json:"message"`

	// Code is a machine-readable error code from the backend, or one
	// of the Code* constants for local failures.
	Code string `json:"code"`

	// StatusCode is the HTTP status, or 0 if no response was received.
	StatusCode int `json:"statusCode"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("api: %s (code=%s, status=%d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("api: %s (code=%s)", e.Message, e.Code)
}

// IsUnauthorized reports whether the backend rejected the device token.
// The session layer clears the stored device on this condition.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsNetwork reports whether the failure happened without an HTTP
// response. Network errors are transient; the caller keeps its state.
func (e *APIError) IsNetwork() bool {
	return e.Code == CodeNetwork
}

// networkError wraps a transport failure.
func networkError(err error) *APIError {
	return &APIError{
		Message:    err.Error(),
		Code:       CodeNetwork,
		StatusCode: 0,
	}
}

// requestError wraps a failure before the request was sent.
func requestError(err error) *APIError {
	return &APIError{
		Message:    err.Error(),
		Code:       CodeRequest,
		StatusCode: 0,
	}
}
