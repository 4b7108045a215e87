package payload

import (
	"bytes"
	"testing"

	"github.com/mfld-dnx/dnx/pkg/protocol"
)

// buildFirmware assembles a minimal synthetic dnx_fwr.bin: DnX header,
// FUPH (C0 size, no PSFW/SSFW so offsets stay simple), LOFW, HIFW, then the
// $DnX marker, RSA region and Chaabi CH00/CDPH markers padded to satisfy
// FindChaabiRange.
func buildFirmware(t *testing.T, fuphSize int) []byte {
	t.Helper()

	fuph := make([]byte, fuphSize)
	// All component sizes left zero: no PSFW1/PSFW2/SSFW/rom-patch bytes.

	lofw := make([]byte, protocol.OneTwentyEightK)
	for i := range lofw {
		lofw[i] = byte(i)
	}
	hifw := make([]byte, protocol.OneTwentyEightK)
	for i := range hifw {
		hifw[i] = byte(i + 1)
	}

	body := append([]byte{}, fuph...)
	body = append(body, lofw...)
	body = append(body, hifw...)

	header := protocol.NewDnxHeader(body)
	data := append([]byte{}, header.Bytes()...)
	data = append(data, body...)

	// $DnX marker and the RSA region that trails it by 8 bytes.
	data = append(data, []byte("$DnX")...)
	data = append(data, make([]byte, rsaSignatureSize)...)

	// Chaabi region: CH00 at some offset >= 0x80 into the remainder, CDPH
	// after it, then 24 bytes of trailing CDPH header.
	ch00At := len(data) + 0x80
	for len(data) < ch00At {
		data = append(data, 0xAA)
	}
	data = append(data, []byte("CH00")...)
	data = append(data, make([]byte, 32)...)
	data = append(data, []byte("CDPH")...)
	data = append(data, make([]byte, chaabiHeaderSize)...)

	return data
}

func TestNewFirmwarePayloadRejectsShortImage(t *testing.T) {
	_, err := NewFirmwarePayload([]byte("too short"), protocol.FuphHeaderSizeC0)
	if err == nil {
		t.Fatal("expected error for short image")
	}
}

func TestNewFirmwarePayloadRejectsMissingMarker(t *testing.T) {
	data := buildFirmware(t, protocol.FuphHeaderSizeC0)
	markerPos := bytes.Index(data, []byte("$DnX"))
	if markerPos < 0 {
		t.Fatal("test fixture missing $DnX marker")
	}
	copy(data[markerPos:], []byte("XXXX"))
	_, err := NewFirmwarePayload(data, protocol.FuphHeaderSizeC0)
	if err == nil {
		t.Fatal("expected error for missing $DnX marker")
	}
}

func TestFirmwarePayloadLOFWHIFWRoundtrip(t *testing.T) {
	data := buildFirmware(t, protocol.FuphHeaderSizeC0)
	p, err := NewFirmwarePayload(data, protocol.FuphHeaderSizeC0)
	if err != nil {
		t.Fatal(err)
	}

	lofw := p.LOFWBytes()
	if len(lofw) != protocol.OneTwentyEightK {
		t.Fatalf("LOFWBytes() len = %d, want %d", len(lofw), protocol.OneTwentyEightK)
	}
	if lofw[0] != 0 || lofw[1] != 1 {
		t.Errorf("LOFWBytes() content mismatch at head")
	}

	hifw := p.HIFWBytes()
	if len(hifw) != protocol.OneTwentyEightK {
		t.Fatalf("HIFWBytes() len = %d, want %d", len(hifw), protocol.OneTwentyEightK)
	}
	if hifw[0] != 1 {
		t.Errorf("HIFWBytes() content mismatch at head: got %d, want 1", hifw[0])
	}
}

func TestFirmwarePayloadRUPHS(t *testing.T) {
	data := buildFirmware(t, protocol.FuphHeaderSizeC0)
	p, err := NewFirmwarePayload(data, protocol.FuphHeaderSizeC0)
	if err != nil {
		t.Fatal(err)
	}
	got := p.RUPHSBytes()
	want := []byte{0x20, 0, 0, 0}
	if string(got) != string(want) {
		t.Errorf("RUPHSBytes() = %x, want %x", got, want)
	}
	if len(p.RUPHBytes()) != protocol.FuphHeaderSizeC0 {
		t.Errorf("RUPHBytes() len = %d, want %d", len(p.RUPHBytes()), protocol.FuphHeaderSizeC0)
	}
}

func TestFirmwarePayloadRSASignature(t *testing.T) {
	data := buildFirmware(t, protocol.FuphHeaderSizeC0)
	p, err := NewFirmwarePayload(data, protocol.FuphHeaderSizeC0)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.RSASignature()) != rsaSignatureSize {
		t.Errorf("RSASignature() len = %d, want %d", len(p.RSASignature()), rsaSignatureSize)
	}
}

func TestFirmwarePayloadEmptyComponentChunksAreEmpty(t *testing.T) {
	data := buildFirmware(t, protocol.FuphHeaderSizeC0)
	p, err := NewFirmwarePayload(data, protocol.FuphHeaderSizeC0)
	if err != nil {
		t.Fatal(err)
	}
	it := p.Psfw1Chunks()
	if it.Total() != 0 {
		t.Errorf("Psfw1Chunks().Total() = %d, want 0 (no PSFW1 declared)", it.Total())
	}
	if _, ok := it.Next(); ok {
		t.Errorf("Psfw1Chunks().Next() should report no chunks")
	}
}
