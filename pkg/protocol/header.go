package protocol

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// DnxHeader is the 24-byte little-endian header sent immediately before any
// body pushed over the wire (firmware body, security FW chunk, OS image
// chunk): a size/checksum pair followed by four reserved words.
type DnxHeader struct {
	Size     uint32
	Checksum uint32
	Reserved [4]uint32
}

// NewDnxHeader builds the header describing body, computing its CRC32
// checksum. Per spec.md §3's header-consistency invariant, this is the only
// supported way to construct a header that will actually be emitted.
func NewDnxHeader(body []byte) DnxHeader {
	return DnxHeader{
		Size:     uint32(len(body)),
		Checksum: crc32.ChecksumIEEE(body),
	}
}

// Bytes serializes the header to its 24-byte wire form.
func (h DnxHeader) Bytes() []byte {
	buf := make([]byte, DnxHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Size)
	binary.LittleEndian.PutUint32(buf[4:8], h.Checksum)
	for i, r := range h.Reserved {
		binary.LittleEndian.PutUint32(buf[8+i*4:12+i*4], r)
	}
	return buf
}

// ParseDnxHeader decodes a 24-byte wire header.
func ParseDnxHeader(b []byte) (DnxHeader, error) {
	if len(b) < DnxHeaderSize {
		return DnxHeader{}, fmt.Errorf("protocol: dnx header needs %d bytes, got %d", DnxHeaderSize, len(b))
	}
	var h DnxHeader
	h.Size = binary.LittleEndian.Uint32(b[0:4])
	h.Checksum = binary.LittleEndian.Uint32(b[4:8])
	for i := range h.Reserved {
		h.Reserved[i] = binary.LittleEndian.Uint32(b[8+i*4 : 12+i*4])
	}
	return h, nil
}

// FuphHeader is the FW Update Profile Header, whose total size (0x1C, 0x20
// or 0x24) depends on SoC revision. The size is supplied by the caller of
// ParseFuphHeader; it is not inferred from the header bytes.
type FuphHeader struct {
	raw []byte
}

// ParseFuphHeader copies size bytes of data as a FUPH header. size must be
// one of FuphHeaderSizeOldMFD/C0/D0.
func ParseFuphHeader(data []byte, size int) (FuphHeader, error) {
	if size != FuphHeaderSizeOldMFD && size != FuphHeaderSizeC0 && size != FuphHeaderSizeD0 {
		return FuphHeader{}, fmt.Errorf("protocol: unsupported fuph header size 0x%x", size)
	}
	if len(data) < size {
		return FuphHeader{}, fmt.Errorf("protocol: fuph header needs %d bytes, got %d", size, len(data))
	}
	raw := make([]byte, size)
	copy(raw, data[:size])
	return FuphHeader{raw: raw}, nil
}

// Size reports the header's total length (0x1C, 0x20 or 0x24).
func (f FuphHeader) Size() int { return len(f.raw) }

// Bytes returns the raw header bytes, as sent on RUPH.
func (f FuphHeader) Bytes() []byte { return f.raw }

func (f FuphHeader) readU32(offset int) uint32 {
	if offset+4 > len(f.raw) {
		return 0
	}
	return binary.LittleEndian.Uint32(f.raw[offset : offset+4])
}

// Psfw1Size is the size, in bytes, of the PSFW1 blob that follows LOFW/HIFW.
func (f FuphHeader) Psfw1Size() uint32 { return f.readU32(FuphPsfw1SizeOffset) }

// Psfw2Size is the size, in bytes, of the PSFW2 blob.
func (f FuphHeader) Psfw2Size() uint32 { return f.readU32(FuphPsfw2SizeOffset) }

// SsfwSize is the size, in bytes, of the secondary security FW blob.
func (f FuphHeader) SsfwSize() uint32 { return f.readU32(FuphSsfwSizeOffset) }

// RomPatchSize is the size, in bytes, of the ROM patch blob. Absent (zero)
// on the old Medfield (0x1C) header variant.
func (f FuphHeader) RomPatchSize() uint32 {
	if f.Size() <= FuphHeaderSizeOldMFD {
		return 0
	}
	return f.readU32(FuphRomPatchSizeOffset)
}

// OsipHeader is the 512-byte OS Image Package partition table at the head
// of a dnx_osr.img OS recovery image.
type OsipHeader struct {
	raw         []byte
	Signature   uint32
	HeaderSize  uint32
	NumPointers uint32
}

// ParseOsipHeader decodes the fixed 512-byte OSIP table.
func ParseOsipHeader(data []byte) (OsipHeader, error) {
	if len(data) < OsipTableSize {
		return OsipHeader{}, fmt.Errorf("protocol: osip table needs %d bytes, got %d", OsipTableSize, len(data))
	}
	raw := make([]byte, OsipTableSize)
	copy(raw, data[:OsipTableSize])
	return OsipHeader{
		raw:         raw,
		Signature:   binary.LittleEndian.Uint32(raw[0:4]),
		HeaderSize:  binary.LittleEndian.Uint32(raw[OsipSizeOffset : OsipSizeOffset+4]),
		NumPointers: binary.LittleEndian.Uint32(raw[OsipNumPointersOffset : OsipNumPointersOffset+4]),
	}, nil
}

// Bytes returns the raw 512-byte table, as sent on ROSIP.
func (o OsipHeader) Bytes() []byte { return o.raw }

// PartitionSize reports the image size, in bytes, recorded for partition n.
func (o OsipHeader) PartitionSize(n int) (uint32, error) {
	off := OSPartitionSizeOffset(n)
	if off+4 > len(o.raw) {
		return 0, fmt.Errorf("protocol: osip partition %d out of range", n)
	}
	return binary.LittleEndian.Uint32(o.raw[off : off+4]), nil
}
