package payload

import (
	"bytes"
	"fmt"

	"github.com/mfld-dnx/dnx/pkg/protocol"
)

// minFirmwareSize is the smallest file that could plausibly hold a DnX
// header plus any real component data.
const minFirmwareSize = protocol.DnxHeaderSize + 256

// rsaSignatureOffsetFromMarker and rsaSignatureSize locate the RSA-2048
// signature relative to the "$DnX" marker: canonical images put the marker
// at file offset 0x80 and the signature at 0x88, eight bytes later.
const (
	rsaSignatureOffsetFromMarker = 0x08
	rsaSignatureSize             = 0x100
)

// FirmwarePayload is a parsed FW image: the low/high firmware halves plus
// whichever security-firmware components the FUPH declares present.
// Offsets are computed once at construction, mirroring dnx-core's
// FirmwareImage::from_bytes.
type FirmwarePayload struct {
	data      []byte
	fuph      protocol.FuphHeader
	header    protocol.DnxHeader
	markerPos int

	psfw1Offset, psfw1Size     int
	psfw2Offset, psfw2Size     int
	ssfwOffset, ssfwSize       int
	romPatchOffset, romPatchSz int
	vedfwOffset, vedfwSize     int
}

// NewFirmwarePayload parses a LOFW/HIFW/security-FW image. fuphSize selects
// which FUPH variant (0x1C/0x20/0x24) the image carries. It is not inferred
// from the image, and any of the three sizes parses as long as the image is
// large enough; on RUPHS the session sends this size to the device.
func NewFirmwarePayload(data []byte, fuphSize int) (*FirmwarePayload, error) {
	if len(data) < minFirmwareSize {
		return nil, &InvalidFirmwareError{Reason: fmt.Sprintf("image is %d bytes, need at least %d", len(data), minFirmwareSize)}
	}
	markerPos := bytes.Index(data, []byte("$DnX"))
	if markerPos < 0 {
		return nil, &InvalidFirmwareError{Reason: "missing $DnX marker"}
	}
	if _, _, ok := FindChaabiRange(data); !ok {
		return nil, &InvalidFirmwareError{Reason: "no Chaabi markers (CH00/CDPH)"}
	}

	body := data[protocol.DnxHeaderSize:]
	fuph, err := protocol.ParseFuphHeader(body, fuphSize)
	if err != nil {
		return nil, &InvalidFirmwareError{Reason: err.Error()}
	}

	p := &FirmwarePayload{
		data:      data,
		fuph:      fuph,
		markerPos: markerPos,
	}
	p.header = protocol.NewDnxHeader(data)

	p.psfw1Size = int(fuph.Psfw1Size())
	p.psfw2Size = int(fuph.Psfw2Size())
	p.ssfwSize = int(fuph.SsfwSize())
	p.romPatchSz = int(fuph.RomPatchSize())

	base := protocol.DnxHeaderSize + fuph.Size() + 2*protocol.OneTwentyEightK
	p.psfw1Offset = base
	p.psfw2Offset = p.psfw1Offset + p.psfw1Size
	p.ssfwOffset = p.psfw2Offset + p.psfw2Size
	p.romPatchOffset = p.ssfwOffset + p.ssfwSize
	p.vedfwOffset = p.romPatchOffset + p.romPatchSz
	p.vedfwSize = len(data) - p.vedfwOffset
	if p.vedfwSize < 0 {
		p.vedfwSize = 0
	}
	return p, nil
}

// DXBLBytes is the full firmware image -- the synthetic 24-byte DnxHeader
// followed by the entire raw file -- sent in one write in answer to DXBL.
func (p *FirmwarePayload) DXBLBytes() []byte {
	out := make([]byte, 0, protocol.DnxHeaderSize+len(p.data))
	out = append(out, p.header.Bytes()...)
	out = append(out, p.data...)
	return out
}

// FuphSize reports the FUPH variant's total length (0x1C, 0x20 or 0x24),
// sent as a raw u32 in answer to RUPHS.
func (p *FirmwarePayload) FuphSize() uint32 { return uint32(p.fuph.Size()) }

// RUPHSBytes is the 4-byte little-endian FUPH size sent in answer to RUPHS.
func (p *FirmwarePayload) RUPHSBytes() []byte {
	n := p.FuphSize()
	return []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
}

// RUPHBytes is the full FUPH, sent in answer to RUPH.
func (p *FirmwarePayload) RUPHBytes() []byte { return p.fuph.Bytes() }

func (p *FirmwarePayload) slice(offset, size int) []byte {
	if size <= 0 || offset >= len(p.data) {
		return nil
	}
	end := offset + size
	if end > len(p.data) {
		end = len(p.data)
	}
	return p.data[offset:end]
}

// LOFWBytes is the first 128 KiB following the FUPH.
func (p *FirmwarePayload) LOFWBytes() []byte {
	return p.slice(protocol.DnxHeaderSize+p.fuph.Size(), protocol.OneTwentyEightK)
}

// HIFWBytes is the second 128 KiB following the FUPH.
func (p *FirmwarePayload) HIFWBytes() []byte {
	return p.slice(protocol.DnxHeaderSize+p.fuph.Size()+protocol.OneTwentyEightK, protocol.OneTwentyEightK)
}

func (p *FirmwarePayload) psfw1Bytes() []byte    { return p.slice(p.psfw1Offset, p.psfw1Size) }
func (p *FirmwarePayload) psfw2Bytes() []byte    { return p.slice(p.psfw2Offset, p.psfw2Size) }
func (p *FirmwarePayload) ssfwBytes() []byte     { return p.slice(p.ssfwOffset, p.ssfwSize) }
func (p *FirmwarePayload) romPatchBytes() []byte { return p.slice(p.romPatchOffset, p.romPatchSz) }
func (p *FirmwarePayload) vedfwBytes() []byte    { return p.slice(p.vedfwOffset, p.vedfwSize) }

// Psfw1Chunks, Psfw2Chunks, SsfwChunks, RomPatchChunks and VedfwChunks each
// return a 64 KiB chunk iterator over their component, empty if the FUPH
// declared a zero size for it. Unlike LOFW/HIFW, each chunk these iterators
// yield is sent with its own DnxHeader prefix -- framing is the caller's
// job (pkg/state's nextFramedChunkAction), not this iterator's.
func (p *FirmwarePayload) Psfw1Chunks() *ChunkIterator {
	return NewChunkIterator(p.psfw1Bytes(), protocol.SixtyFourK)
}
func (p *FirmwarePayload) Psfw2Chunks() *ChunkIterator {
	return NewChunkIterator(p.psfw2Bytes(), protocol.SixtyFourK)
}
func (p *FirmwarePayload) SsfwChunks() *ChunkIterator {
	return NewChunkIterator(p.ssfwBytes(), protocol.SixtyFourK)
}
func (p *FirmwarePayload) RomPatchChunks() *ChunkIterator {
	return NewChunkIterator(p.romPatchBytes(), protocol.SixtyFourK)
}
func (p *FirmwarePayload) VedfwChunks() *ChunkIterator {
	return NewChunkIterator(p.vedfwBytes(), protocol.SixtyFourK)
}

// RSASignature returns the opaque RSA-2048 signature region that follows
// the $DnX marker, forwarded verbatim; it is never parsed, only relayed.
func (p *FirmwarePayload) RSASignature() []byte {
	return p.slice(p.markerPos+rsaSignatureOffsetFromMarker, rsaSignatureSize)
}

// SuCPChunks returns a 64 KiB chunk iterator over the ROM-patch blob
// (sized from the FUPH's rom_patch_size field), sent in answer to SuCP --
// per spec.md §6's "Ready for ROM patch" meaning for this token.
func (p *FirmwarePayload) SuCPChunks() *ChunkIterator { return p.RomPatchChunks() }

// ChaabiPayload returns the assembled Chaabi Token+FW payload (CDPH header
// followed by the Token+FW region), for static analysis; this generation
// of the wire protocol never requests it directly.
func (p *FirmwarePayload) ChaabiPayload() ([]byte, bool) {
	return BuildChaabiPayload(p.data)
}

// DMIPBytes is the Module Info Pointer component; DnX firmware images on
// this generation of tooling carry it as part of the FUPH's reserved tail
// rather than as a separate slice, so it's just the FUPH bytes again.
func (p *FirmwarePayload) DMIPBytes() []byte { return p.fuph.Bytes() }

// Size reports the image's total length.
func (p *FirmwarePayload) Size() int { return len(p.data) }
