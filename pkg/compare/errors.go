package compare

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/arena-ai/arena/pkg/models"
)

// ErrCanceled is returned when an in-flight comparison is invalidated by
// CancelRequests.
var ErrCanceled = errors.New("comparison canceled")

// TransportError reports a failure to reach a backend or read its response.
type TransportError struct {
	Model models.ModelID
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request failed: %v", e.Model, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx backend response. Message is the backend
// supplied error text when the body was parseable.
type StatusError struct {
	Model      models.ModelID
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: status=%d: %s", e.Model, e.StatusCode, msg)
}
