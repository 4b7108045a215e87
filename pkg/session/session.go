// Package session drives one DnX device through the ROM->FW->OS
// bootstrap: open a transport, run the ACK/state-machine loop, and
// re-open across the one documented RESET re-enumeration.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/mfld-dnx/dnx/pkg/protocol"
	"github.com/mfld-dnx/dnx/pkg/state"
	"github.com/mfld-dnx/dnx/pkg/transport"
)

// OpenFunc opens a fresh Transport against one of the given PIDs. Production
// callers pass a closure over transport.OpenUSB and a *gousb.Context; tests
// pass a closure that reconnects the same ScriptedTransport, mirroring how
// the teacher's App.WaitSwitch re-opens against a new PID in place.
type OpenFunc func(pids []uint16) (transport.Transport, error)

// Session owns one transport and one parsed payload set, and drives the
// state machine to completion. Like the teacher's App owning one
// *gousb.Device, a Session is not safe for concurrent use and is not
// reusable once Run returns.
type Session struct {
	tr        transport.Transport
	open      OpenFunc
	cfg       Config
	observers []Observer
	stateCtx  *state.Context
	done      bool
}

// New builds a Session around an already-open transport. open is used only
// if a RESET forces a re-enumeration; it may be nil if the caller knows no
// OS/RESET sequence will occur (e.g. a scripted test ending before RESET).
func New(tr transport.Transport, open OpenFunc, cfg Config, observers ...Observer) *Session {
	cfg = cfg.withDefaults()
	sctx := &state.Context{
		FW:          cfg.FW,
		OS:          cfg.OS,
		OSPartition: cfg.OSPartition,
	}
	if cfg.IFWIWipe {
		sctx.GPFlags |= protocol.GPFlagWipeMode
	}
	return &Session{tr: tr, open: open, cfg: cfg, observers: observers, stateCtx: sctx}
}

func (s *Session) emit(e Event) {
	for _, o := range s.observers {
		o.OnEvent(e)
	}
}

func (s *Session) logf(level LogLevel, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.emit(Log{Level: level, Message: msg})
	glog.V(1).Info(msg)
}

// Run drives the session to completion: handshake, then the ACK-driven
// loop described in spec.md §4.5. It returns nil only on a clean
// Complete; every abort path returns the error that caused it, having
// already emitted the corresponding Error event.
func (s *Session) Run(ctx context.Context) (err error) {
	if s.done {
		return ErrAlreadyTerminal
	}
	defer func() { s.done = true }()

	errorEmitted := false
	defer func() {
		if err != nil && !errorEmitted {
			s.emit(Error{Message: err.Error()})
		}
	}()

	s.emit(DeviceConnected{VID: protocol.IntelVID})
	if _, err := s.tr.Write(protocol.AckDnER.Bytes()); err != nil {
		return fmt.Errorf("session: handshake write: %w", err)
	}
	s.logf(LogInfo, "sent DnER handshake")

	cur := state.Invalid
	resetSeen := false
	for {
		select {
		case <-ctx.Done():
			return ErrCancelled
		default:
		}

		ack, err := s.tr.ReadAck()
		if err != nil {
			if errors.Is(err, transport.ErrDisconnected) && resetSeen {
				next, complete, rerr := s.handleReenumeration(ctx, cur)
				if rerr != nil {
					return rerr
				}
				if complete {
					return nil
				}
				cur = next
				continue
			}
			return fmt.Errorf("session: read ack: %w", err)
		}
		s.logf(LogInfo, "ack: %s", ack)
		if ack.Equal(protocol.AckRESET) {
			resetSeen = true
		}

		next, action := state.Step(cur, ack, s.stateCtx)
		if next != cur {
			s.emit(StateChanged{From: cur, To: next})
			writeRecoveryMarker(next)
		}
		cur = next

		switch a := action.(type) {
		case state.ActionSendBytes:
			if _, err := s.tr.Write(a.Data); err != nil {
				return fmt.Errorf("session: write: %w", err)
			}
			s.emit(Progress{Phase: cur.String(), Current: uint64(len(a.Data)), Total: uint64(len(a.Data))})

		case state.ActionSendSize:
			if _, err := s.tr.Write(leUint32(a.N)); err != nil {
				return fmt.Errorf("session: write size: %w", err)
			}

		case state.ActionNoOp:
			// nothing to do

		case state.ActionAwaitReenumeration:
			next, complete, rerr := s.handleReenumeration(ctx, cur)
			if rerr != nil {
				return rerr
			}
			if complete {
				return nil
			}
			cur = next

		case state.ActionComplete:
			s.emit(Complete{})
			clearRecoveryMarker()
			return nil

		case state.ActionAbort:
			s.emit(Error{Code: ack, Message: a.Err.Error()})
			errorEmitted = true
			return a.Err

		default:
			return fmt.Errorf("session: state machine returned unknown action %T", action)
		}
	}
}

// handleReenumeration implements spec.md §4.5 step 4: on a disconnect
// following RESET, close the old transport, retry opening the device against
// the FW-stage PID set for cfg.ReopenAttempts tries, cfg.ReopenInterval
// apart, then hand the result to state.Reopened to learn the next state.
func (s *Session) handleReenumeration(ctx context.Context, cur state.DnxState) (next state.DnxState, complete bool, err error) {
	s.emit(DeviceDisconnected{})
	if s.open == nil {
		return state.Aborted, false, fmt.Errorf("session: device disconnected and no reopen function configured")
	}
	_ = s.tr.Close()

	var lastErr error
	for attempt := 0; attempt < s.cfg.ReopenAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return state.Aborted, false, ErrCancelled
		default:
		}

		tr, openErr := s.open(s.cfg.FWStagePIDs)
		if openErr == nil {
			s.tr = tr
			s.emit(DeviceConnected{VID: protocol.IntelVID})
			next, action := state.Reopened(cur, s.stateCtx)
			if next != cur {
				s.emit(StateChanged{From: cur, To: next})
				writeRecoveryMarker(next)
			}
			if _, ok := action.(state.ActionComplete); ok {
				s.emit(Complete{})
				clearRecoveryMarker()
				return next, true, nil
			}
			return next, false, nil
		}
		lastErr = openErr
		s.logf(LogWarn, "reopen attempt %d/%d failed: %v", attempt+1, s.cfg.ReopenAttempts, openErr)

		select {
		case <-ctx.Done():
			return state.Aborted, false, ErrCancelled
		case <-time.After(s.cfg.ReopenInterval):
		}
	}
	if lastErr != nil {
		return state.Aborted, false, fmt.Errorf("%w: %v", ErrReenumerationFailed, lastErr)
	}
	return state.Aborted, false, ErrReenumerationFailed
}

func leUint32(n uint32) []byte {
	return []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
}
