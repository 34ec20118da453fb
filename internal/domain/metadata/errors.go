package metadata

import "fmt"

// Code classifies a metadata extraction failure for the caller.
type Code string

// Failure codes.
const (
	CodeInvalidURL  Code = "INVALID_LUMA_URL"
	CodeFetchFailed Code = "LUMA_FETCH_FAILED"
	CodeUnexpected  Code = "FETCH_ERROR"
)

// Error is returned by Extract. Message is safe to show to an admin.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }
