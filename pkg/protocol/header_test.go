package protocol

import "testing"

func TestDnxHeaderRoundtrip(t *testing.T) {
	body := []byte("some firmware body bytes, arbitrary length")
	h := NewDnxHeader(body)
	if h.Size != uint32(len(body)) {
		t.Errorf("Size = %d, want %d", h.Size, len(body))
	}

	b := h.Bytes()
	if len(b) != DnxHeaderSize {
		t.Fatalf("Bytes() len = %d, want %d", len(b), DnxHeaderSize)
	}

	got, err := ParseDnxHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Size != h.Size || got.Checksum != h.Checksum {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", got, h)
	}
}

func TestFuphHeaderSizeOffsets(t *testing.T) {
	raw := make([]byte, FuphHeaderSizeD0)
	putU32 := func(off int, v uint32) {
		raw[off] = byte(v)
		raw[off+1] = byte(v >> 8)
		raw[off+2] = byte(v >> 16)
		raw[off+3] = byte(v >> 24)
	}
	putU32(FuphPsfw1SizeOffset, 0x1000)
	putU32(FuphPsfw2SizeOffset, 0x2000)
	putU32(FuphSsfwSizeOffset, 0x3000)
	putU32(FuphRomPatchSizeOffset, 0x4000)

	f, err := ParseFuphHeader(raw, FuphHeaderSizeD0)
	if err != nil {
		t.Fatal(err)
	}
	if f.Psfw1Size() != 0x1000 || f.Psfw2Size() != 0x2000 || f.SsfwSize() != 0x3000 || f.RomPatchSize() != 0x4000 {
		t.Errorf("unexpected sizes: %+v", f)
	}

	// The old Medfield variant has no ROM patch field.
	old, err := ParseFuphHeader(raw[:FuphHeaderSizeOldMFD], FuphHeaderSizeOldMFD)
	if err != nil {
		t.Fatal(err)
	}
	if old.RomPatchSize() != 0 {
		t.Errorf("old MFD header should report 0 rom patch size, got %d", old.RomPatchSize())
	}
}

func TestOsipHeaderPartitionSize(t *testing.T) {
	raw := make([]byte, OsipTableSize)
	raw[0], raw[1], raw[2], raw[3] = 0x24, 0x4F, 0x53, 0x24 // "$OS$" in file order
	raw[OsipNumPointersOffset] = 2

	off0 := OSPartitionSizeOffset(0)
	raw[off0] = 0x00
	raw[off0+1] = 0x10
	raw[off0+2] = 0
	raw[off0+3] = 0

	o, err := ParseOsipHeader(raw)
	if err != nil {
		t.Fatal(err)
	}
	if o.NumPointers != 2 {
		t.Errorf("NumPointers = %d, want 2", o.NumPointers)
	}
	size, err := o.PartitionSize(0)
	if err != nil {
		t.Fatal(err)
	}
	if size != 0x1000 {
		t.Errorf("PartitionSize(0) = 0x%x, want 0x1000", size)
	}
}
