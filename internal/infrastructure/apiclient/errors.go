package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call the way the console reacts to it
type Kind string

const (
	// KindValidation is input rejected before or by the server
	KindValidation Kind = "validation"
	// KindAuthorization is a missing session or a missing permission
	KindAuthorization Kind = "authorization"
	// KindConflict is an operation the current state does not allow
	KindConflict Kind = "conflict"
	// KindNotFound is a missing or invisible entity
	KindNotFound Kind = "not_found"
	// KindNetwork is a transport failure or a server fault
	KindNetwork Kind = "network"
)

// ErrSessionExpired is wrapped by the error of a call rejected with 401
// while a session was held. The session is already cleared when it is seen.
var ErrSessionExpired = errors.New("apiclient: session expired")

// Sentinels for errors.Is checks by kind
var (
	ErrValidation    = &Error{Kind: KindValidation}
	ErrAuthorization = &Error{Kind: KindAuthorization}
	ErrConflict      = &Error{Kind: KindConflict}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrNetwork       = &Error{Kind: KindNetwork}
)

// Error is the single failure value of a call
type Error struct {
	Kind      Kind
	Status    int
	Code      string
	Message   string
	RequestID string
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Status != 0:
		return fmt.Sprintf("%s (%d %s): %s", e.Kind, e.Status, e.Code, e.Message)
	case e.Err != nil && e.Message == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, and by code when the target sets one
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

// KindOf returns the kind of err, or "" when it did not come from a call
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// kindForStatus maps an HTTP status to the kind of failure it signals
func kindForStatus(status int) Kind {
	switch status {
	case http.StatusBadRequest:
		return KindValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthorization
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return KindConflict
	}
	return KindNetwork
}
