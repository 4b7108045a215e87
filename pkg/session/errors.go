package session

import "errors"

// ErrCancelled is returned from Run when the context passed in is done
// before the session reached a terminal state.
var ErrCancelled = errors.New("session: cancelled")

// ErrAlreadyTerminal is returned by Run when called on a Session that has
// already finished (successfully or not).
var ErrAlreadyTerminal = errors.New("session: already terminal")

// ErrReenumerationFailed is returned when the device doesn't come back
// within the configured reopen attempts after RESET.
var ErrReenumerationFailed = errors.New("session: device did not re-enumerate")
