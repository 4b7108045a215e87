// Package transport abstracts the single USB bulk connection a DnX session
// drives: writing bytes to the device, reading a fixed number of bytes back,
// and decoding the variable-length ACK tokens the protocol uses to signal
// what it wants next.
package transport

import (
	"errors"
	"time"

	"github.com/mfld-dnx/dnx/pkg/protocol"
)

// ErrIO wraps an underlying USB failure that isn't a timeout or a clean
// disconnect.
var ErrIO = errors.New("transport: io error")

// ErrTimeout is returned when a read doesn't complete within its deadline.
// Distinct from ErrIO so callers (the session orchestrator) can tell a dead
// link apart from a device that's simply still thinking.
var ErrTimeout = errors.New("transport: timeout")

// ErrDisconnected is returned once a device has dropped off the bus. The
// session orchestrator treats this specially when it follows a RESET ACK:
// that's the documented ROM→FW re-enumeration, not a failure.
var ErrDisconnected = errors.New("transport: disconnected")

// DefaultReadTimeout is the per-operation timeout spec.md §5 specifies for
// ordinary reads.
const DefaultReadTimeout = 5 * time.Second

// DefaultHandshakeTimeout is the timeout for the initial DnER handshake,
// which spec.md §5 calls out separately since a device freshly plugged in
// can take longer to start responding than a mid-session read. The session
// does not apply it: the reads that follow the DnER write use the
// transport's ordinary per-Read deadline.
const DefaultHandshakeTimeout = 30 * time.Second

// Transport exchanges bytes with one USB device. Implementations must
// guarantee that Write enqueues every byte before returning (retrying
// partial writes internally) and that Read blocks until exactly n bytes
// have arrived or the deadline elapses.
type Transport interface {
	// Write sends data, retrying partial writes until all of it is
	// enqueued or an error occurs.
	Write(data []byte) (int, error)

	// Read blocks until exactly n bytes have been received, the deadline
	// elapses (ErrTimeout), or the link fails (ErrIO/ErrDisconnected).
	Read(n int) ([]byte, error)

	// ReadAck reads the minimum number of bytes needed to disambiguate one
	// ACK token per the prefix-trie rules in protocol.DecodeAck.
	ReadAck() (protocol.AckCode, error)

	// IsConnected performs a best-effort, non-authoritative liveness
	// check; the USB link can still drop between this call returning and
	// the next operation.
	IsConnected() bool

	// Close releases the underlying device handle.
	Close() error
}

// readAck is shared by every Transport implementation: it reads a 4-byte
// head and, if that head commits to a longer token, pulls the remaining
// bytes via protocol.DecodeAck.
func readAck(read func(int) ([]byte, error)) (protocol.AckCode, error) {
	headBytes, err := read(4)
	if err != nil {
		return protocol.AckCode{}, err
	}
	var head [4]byte
	copy(head[:], headBytes)
	return protocol.DecodeAck(head, read)
}
