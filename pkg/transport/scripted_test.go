package transport

import (
	"testing"

	"github.com/mfld-dnx/dnx/pkg/protocol"
)

func TestScriptedTransportWriteMatch(t *testing.T) {
	tr := NewScriptedTransport(t)
	tr.Expect([]byte("hello"))
	tr.Expect([]byte("world"))

	if n, err := tr.Write([]byte("hello")); err != nil || n != 5 {
		t.Fatalf("Write #1: n=%d err=%v", n, err)
	}
	if n, err := tr.Write([]byte("world")); err != nil || n != 5 {
		t.Fatalf("Write #2: n=%d err=%v", n, err)
	}
	tr.Finish()
}

func TestScriptedTransportReadExactCounts(t *testing.T) {
	tr := NewScriptedTransport(t)
	tr.InjectBytes([]byte("DFRM"))
	tr.InjectBytes([]byte("done"))

	got, err := tr.Read(4)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "DFRM" {
		t.Errorf("got %q, want DFRM", got)
	}
	got, err = tr.Read(4)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "done" {
		t.Errorf("got %q, want done", got)
	}
	tr.Finish()
}

func TestScriptedTransportReadAckDrivesDecoder(t *testing.T) {
	tr := NewScriptedTransport(t)
	tr.InjectAck(protocol.MustAckFromASCII("RUPHS"))

	ack, err := tr.ReadAck()
	if err != nil {
		t.Fatal(err)
	}
	if ack.String() != "RUPHS" {
		t.Errorf("ReadAck() = %q, want RUPHS", ack.String())
	}
	tr.Finish()
}

func TestScriptedTransportDisconnect(t *testing.T) {
	tr := NewScriptedTransport(t)
	tr.InjectBytes([]byte("DnER"))
	tr.Disconnect()

	if tr.IsConnected() {
		t.Fatal("IsConnected() = true after Disconnect")
	}
	if _, err := tr.Read(4); err != ErrDisconnected {
		t.Errorf("Read after disconnect: err = %v, want ErrDisconnected", err)
	}
	if _, err := tr.Write([]byte("x")); err != ErrDisconnected {
		t.Errorf("Write after disconnect: err = %v, want ErrDisconnected", err)
	}

	tr.Reconnect()
	if !tr.IsConnected() {
		t.Fatal("IsConnected() = false after Reconnect")
	}
}
