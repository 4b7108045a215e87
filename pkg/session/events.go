package session

import (
	"github.com/mfld-dnx/dnx/pkg/protocol"
	"github.com/mfld-dnx/dnx/pkg/state"
)

// LogLevel mirrors the severity tiers dnx-core's event stream carries,
// kept distinct from glog's verbosity levels since this one is part of
// the public Observer contract rather than an internal debugging knob.
type LogLevel uint8

const (
	LogInfo LogLevel = iota
	LogWarn
	LogError
)

func (l LogLevel) String() string {
	switch l {
	case LogWarn:
		return "warn"
	case LogError:
		return "error"
	default:
		return "info"
	}
}

// Event is the closed sum type pushed to every registered Observer, one
// variant per row of spec.md §6's event list.
type Event interface {
	isEvent()
}

type DeviceConnected struct {
	VID, PID uint16
}

func (DeviceConnected) isEvent() {}

type DeviceDisconnected struct{}

func (DeviceDisconnected) isEvent() {}

type StateChanged struct {
	From, To state.DnxState
}

func (StateChanged) isEvent() {}

type Progress struct {
	Phase          string
	Current, Total uint64
}

func (Progress) isEvent() {}

type Log struct {
	Level   LogLevel
	Message string
}

func (Log) isEvent() {}

type Error struct {
	Code    protocol.AckCode
	Message string
}

func (Error) isEvent() {}

type Complete struct{}

func (Complete) isEvent() {}

// Observer receives Session events synchronously, in arrival order.
// Implementations must be side-effect-only: a Session never inspects an
// Observer's return value or state, so feeding decisions back into the
// run loop through one is a misuse of the interface, not a supported
// pattern.
type Observer interface {
	OnEvent(Event)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) { f(e) }
