// Package ifwiver extracts component version numbers out of a $FIP
// version block embedded in an IFWI or firmware image, grounded on
// dnx-core::ifwi_version. The Rust original reads the block via an
// unaligned struct cast; this port reads the same bytes at explicit,
// hand-verified offsets with encoding/binary, matching how
// pkg/protocol/header.go treats every other untrusted on-disk header.
package ifwiver

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// fipMagic is "$FIP" read little-endian as a uint32.
const fipMagic = 0x50494624

// fipHeaderSize is the true size of the packed FipHeader struct: one
// fip_sig u32, then 17 FipVersionBlock fields (umip..cos), then 15
// FipVersionBlockChxx fields (ch01..ch15), then 4 more FipVersionBlock
// fields (dnx, reserved0, reserved1, ifwi). 4 + 17*8 + 15*12 + 4*8 = 352.
// The original source's own doc comment claims 360 bytes; that arithmetic
// doesn't match its own field list, and #[repr(C, packed)] has no padding
// to absorb the difference, so the field-by-field count wins.
const fipHeaderSize = 352

// Byte offsets of the six version fields Analyze needs, counted against
// the field layout above (FipVersionBlock is 8 bytes: minor u16, major
// u16, checksum u8, reserved8 u8, reserved16 u16).
const (
	offsetCh00Rev = 4 + 4*8  // ch00 is the 5th FipVersionBlock field (umip,spat,spct,rpch,ch00)
	offsetScucRev = 4 + 7*8  // scuc is the 8th (..mipd,mipn,scuc)
	offsetMiaRev  = 4 + 9*8  // mia is the 10th (..hvm,mia)
	offsetIa32Rev = 4 + 10*8 // ia32 is the 11th
	offsetOemRev  = 4 + 11*8 // oem is the 12th
	offsetIfwiRev = 4 + 17*8 + 15*12 + 3*8 // ifwi is the last of the trailing 4 FipVersionBlock fields
)

// ErrNoFipBlock is returned when no $FIP magic is found in the image.
var ErrNoFipBlock = errors.New("ifwiver: no $FIP block found")

// Version is a firmware component's major.minor revision, rendered the
// way Intel's own flashing tools print it.
type Version struct {
	Major uint16
	Minor uint16
}

func (v Version) String() string {
	return fmt.Sprintf("%04X.%04X", v.Major, v.Minor)
}

// IsValid reports whether this version was actually populated: the
// original treats an all-zero block as "not present" and skips it.
func (v Version) IsValid() bool {
	return v.Major != 0 || v.Minor != 0
}

// FirmwareVersions collects every component version a $FIP block can
// report. Fields default to the zero Version when the image's block
// never set them.
type FirmwareVersions struct {
	Ifwi         Version
	Scu          Version
	ScuBootstrap Version
	Ia32         Version
	Valhooks     Version
	Chaabi       Version
	Mia          Version
}

func readVersion(block []byte, offset int) Version {
	if offset+4 > len(block) {
		return Version{}
	}
	return Version{
		Minor: binary.LittleEndian.Uint16(block[offset : offset+2]),
		Major: binary.LittleEndian.Uint16(block[offset+2 : offset+4]),
	}
}

// Extract scans data for every 4-byte-aligned $FIP block and merges their
// component versions, mirroring get_image_fw_rev's "only overwrite
// non-zero fields" behavior across however many blocks an image carries
// (an IFWI commonly repeats the block once per boot stage).
func Extract(data []byte) (*FirmwareVersions, error) {
	out := &FirmwareVersions{}
	found := false

	for offset := 0; offset+4 <= len(data); offset += 4 {
		if binary.LittleEndian.Uint32(data[offset:offset+4]) != fipMagic {
			continue
		}
		end := offset + fipHeaderSize
		if end > len(data) {
			continue
		}
		block := data[offset:end]
		found = true

		if v := readVersion(block, offsetScucRev); v.IsValid() {
			out.Scu = v
			out.ScuBootstrap = v
		}
		if v := readVersion(block, offsetMiaRev); v.IsValid() {
			out.Mia = v
		}
		if v := readVersion(block, offsetIa32Rev); v.IsValid() {
			out.Ia32 = v
		}
		if v := readVersion(block, offsetOemRev); v.IsValid() {
			out.Valhooks = v
		}
		if v := readVersion(block, offsetCh00Rev); v.IsValid() {
			out.Chaabi = v
		}
		if v := readVersion(block, offsetIfwiRev); v.IsValid() {
			out.Ifwi = v
		}
	}

	if !found {
		return nil, ErrNoFipBlock
	}
	return out, nil
}
