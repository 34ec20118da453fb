package fetch

import (
	"errors"
	"fmt"
)

// ErrEmptyURL is returned when no URL or calendar identifier is given.
var ErrEmptyURL = errors.New("fetch: empty url")

// FetchError reports a failed page retrieval. StatusCode is zero when the
// request never produced a response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsStatus reports whether err is a FetchError carrying an HTTP status, as
// opposed to a transport failure.
func IsStatus(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.StatusCode != 0
}
