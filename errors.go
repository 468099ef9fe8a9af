package trellis

import "fmt"

// StatusError is any error carrying an HTTP status code and message. The
// dispatcher surfaces these verbatim to the client; errors without one
// become a generic 500.
type StatusError interface {
	error
	StatusCode() int
	StatusMessage() string
}

// HTTPError is the standard StatusError implementation.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s", e.Code, e.Message)
}

func (e *HTTPError) StatusCode() int       { return e.Code }
func (e *HTTPError) StatusMessage() string { return e.Message }

var (
	ErrBadRequest          = &HTTPError{400, "Bad Request"}
	ErrUnauthorized        = &HTTPError{401, "Unauthorized"}
	ErrForbidden           = &HTTPError{403, "Forbidden"}
	ErrNotFound            = &HTTPError{404, "Not Found"}
	ErrRequestTooLarge     = &HTTPError{413, "Request Entity Too Large"}
	ErrServerError         = &HTTPError{500, "Internal Server Error"}
	ErrNotImplemented      = &HTTPError{501, "Not Implemented"}
	ErrVersionNotSupported = &HTTPError{505, "HTTP Version Not Supported"}
)
