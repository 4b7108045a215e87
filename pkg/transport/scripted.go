package transport

import (
	"bytes"
	"sync"

	"github.com/mfld-dnx/dnx/pkg/protocol"
)

// TB is the subset of testing.T/testing.B that ScriptedTransport needs to
// report a script violation. A real *testing.T satisfies it.
type TB interface {
	Fatalf(format string, args ...interface{})
}

// ScriptedTransport is an in-memory Transport for session and state-machine
// tests: callers line up the bytes they expect the session to Write, in
// order, and the bytes the "device" should hand back on Read, and
// ScriptedTransport fails the test the moment either side diverges from the
// script. It's the Go-idiom translation of dnx-core::transport::mock::
// MockTransport's queue-of-messages, adapted to Go's exact-byte-count Read:
// expected writes and injected reads are two independent ordered queues
// rather than one interleaved VecDeque, since a single injected ACK can be
// split across several Read calls (head, then committed tail).
type ScriptedTransport struct {
	t TB

	mu             sync.Mutex
	expectedWrites [][]byte
	writeIdx       int
	readStream     []byte
	connected      bool
}

// NewScriptedTransport returns an empty ScriptedTransport. t.Fatalf is
// called the moment a Write doesn't match the next expectation, or a Read
// asks for more bytes than have been injected.
func NewScriptedTransport(t TB) *ScriptedTransport {
	return &ScriptedTransport{t: t, connected: true}
}

// Expect queues the next bytes the session under test must Write, in order.
func (s *ScriptedTransport) Expect(want []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expectedWrites = append(s.expectedWrites, append([]byte(nil), want...))
}

// InjectBytes appends raw bytes to the stream future Reads will drain.
func (s *ScriptedTransport) InjectBytes(b []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readStream = append(s.readStream, b...)
}

// InjectAck appends an ACK token's wire bytes to the read stream.
func (s *ScriptedTransport) InjectAck(a protocol.AckCode) {
	s.InjectBytes(a.Bytes())
}

// Disconnect makes subsequent Write/Read calls fail as if the device had
// dropped off the bus, mirroring the teacher's enumeration-retry tests.
func (s *ScriptedTransport) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
}

// Reconnect undoes Disconnect, simulating the device re-enumerating.
func (s *ScriptedTransport) Reconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = true
}

// Finish asserts every queued expectation was consumed and every injected
// byte was read; call it at the end of a test to catch a script that ran
// short.
func (s *ScriptedTransport) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeIdx < len(s.expectedWrites) {
		s.t.Fatalf("scripted transport: %d expected write(s) never happened", len(s.expectedWrites)-s.writeIdx)
	}
	if len(s.readStream) != 0 {
		s.t.Fatalf("scripted transport: %d injected byte(s) never read", len(s.readStream))
	}
}

func (s *ScriptedTransport) Write(data []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return 0, ErrDisconnected
	}
	if s.writeIdx >= len(s.expectedWrites) {
		s.t.Fatalf("scripted transport: unexpected write with no Expect() queued: %x", data)
		return 0, nil
	}
	want := s.expectedWrites[s.writeIdx]
	s.writeIdx++
	if !bytes.Equal(want, data) {
		s.t.Fatalf("scripted transport: write mismatch\n got:  %x\n want: %x", data, want)
		return 0, nil
	}
	return len(data), nil
}

func (s *ScriptedTransport) Read(n int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return nil, ErrDisconnected
	}
	if len(s.readStream) < n {
		s.t.Fatalf("scripted transport: read of %d bytes requested, only %d injected", n, len(s.readStream))
		return nil, ErrTimeout
	}
	out := s.readStream[:n]
	s.readStream = s.readStream[n:]
	return out, nil
}

func (s *ScriptedTransport) ReadAck() (protocol.AckCode, error) {
	return readAck(s.Read)
}

func (s *ScriptedTransport) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *ScriptedTransport) Close() error {
	return nil
}
