package state

import (
	"errors"
	"fmt"

	"github.com/mfld-dnx/dnx/pkg/protocol"
)

// ErrProtocolViolation is the sentinel behind ProtocolViolationError, for
// callers that want to classify an abort with errors.Is rather than match
// on the concrete type.
var ErrProtocolViolation = errors.New("state: protocol violation")

// ErrDeviceError is the sentinel behind DeviceError.
var ErrDeviceError = errors.New("state: device reported error")

// ProtocolViolationError is produced when the device sends an ACK the
// current state doesn't recognize at all -- an (state, ack) pair with no
// entry in the transition table.
type ProtocolViolationError struct {
	State DnxState
	Ack   protocol.AckCode
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("state: unexpected ack %q in state %s", e.Ack, e.State)
}

func (e *ProtocolViolationError) Unwrap() error { return ErrProtocolViolation }

// DeviceError is produced when the device itself reports a failure via an
// ERxx/ERRR token.
type DeviceError struct {
	Ack protocol.AckCode
}

func (e *DeviceError) Error() string {
	if idx, ok := e.Ack.ErrorIndex(); ok {
		return fmt.Sprintf("state: device reported error %d (%s)", idx, e.Ack)
	}
	return fmt.Sprintf("state: device reported error (%s)", e.Ack)
}

func (e *DeviceError) Unwrap() error { return ErrDeviceError }
