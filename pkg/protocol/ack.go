package protocol

import (
	"errors"
	"fmt"
)

// ErrMalformedAck is returned by DecodeAck when a 4-byte head commits the
// decoder to a longer token and the bytes that follow don't complete it,
// including when reading those bytes fails. An unrecognized 4-byte head is
// not an error: it is returned as an AckCode holding its raw bytes, so the
// state machine gets the chance to classify it as a ProtocolViolation. It's
// exported for callers that want to treat decode failures distinctly from
// protocol ones.
var ErrMalformedAck = errors.New("protocol: malformed ack")

// AckCode is a decoded ACK token from the device. DnX tokens are 4, 5 or 7
// ASCII bytes; AckCode stores up to 8 so it never needs to allocate.
type AckCode struct {
	raw [8]byte
	n   uint8
}

// AckFromASCII builds an AckCode from its canonical ASCII spelling. Used to
// construct the package's token constants and in tests; production decoding
// goes through DecodeAck.
func AckFromASCII(s string) (AckCode, error) {
	if len(s) == 0 || len(s) > 8 {
		return AckCode{}, fmt.Errorf("protocol: ack token %q has invalid length", s)
	}
	var a AckCode
	copy(a.raw[:], s)
	a.n = uint8(len(s))
	return a, nil
}

// MustAckFromASCII is AckFromASCII but panics on error; used only for the
// package-level token constants in constants.go, whose inputs are compile-time
// literals.
func MustAckFromASCII(s string) AckCode {
	a, err := AckFromASCII(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AckFromBytes builds an AckCode directly from the bytes read off the wire.
func AckFromBytes(b []byte) AckCode {
	var a AckCode
	n := len(b)
	if n > 8 {
		n = 8
	}
	copy(a.raw[:], b[:n])
	a.n = uint8(n)
	return a
}

// Len reports the number of significant bytes in the ACK.
func (a AckCode) Len() int { return int(a.n) }

// Bytes returns the significant bytes of the ACK.
func (a AckCode) Bytes() []byte {
	return a.raw[:a.n]
}

// String renders the ACK as its ASCII form, substituting '.' for any
// non-printable byte — mirrors dnx-core's AckCode::as_ascii.
func (a AckCode) String() string {
	buf := make([]byte, a.n)
	for i := 0; i < int(a.n); i++ {
		b := a.raw[i]
		if b >= 0x20 && b < 0x7f {
			buf[i] = b
		} else {
			buf[i] = '.'
		}
	}
	return string(buf)
}

// Equal reports whether two ACKs carry the same bytes.
func (a AckCode) Equal(b AckCode) bool {
	return a.n == b.n && a.raw == b.raw
}

// IsError reports whether this ACK is one of the ERxx/ERRR error tokens:
// any 4-byte token beginning with "ER".
func (a AckCode) IsError() bool {
	return a.n == 4 && a.raw[0] == 'E' && a.raw[1] == 'R'
}

// ErrorIndex parses the two ASCII digits following "ER" in an error ACK.
// ERRR has no numeric index and reports ok=false.
func (a AckCode) ErrorIndex() (index int, ok bool) {
	if !a.IsError() {
		return 0, false
	}
	d1, d2 := a.raw[2], a.raw[3]
	if d1 < '0' || d1 > '9' || d2 < '0' || d2 > '9' {
		return 0, false
	}
	return int(d1-'0')*10 + int(d2-'0'), true
}

// byteReader is the minimal surface DecodeAck needs to pull the extra bytes
// a longer token commits to once its 4-byte head has been recognized as an
// unambiguous prefix. Transport.Read satisfies it.
type byteReader func(n int) ([]byte, error)

// fiveByteHeads and sevenByteHeads give the 4-byte prefixes that commit the
// decoder to reading further bytes, along with the full token they expand
// to once resolved. PSFW1 and PSFW2 share the head "PSFW", so the map holds
// PSFW2 and DecodeAck tells the two apart by the fifth byte. OSIP Sz is the
// only 7-byte token.
var fiveByteHeads = map[[4]byte]AckCode{
	head4(AckRUPHS): AckRUPHS,
	head4(AckPSFW2): AckPSFW2,
	head4(AckVEDFW): AckVEDFW,
	head4(AckRESET): AckRESET,
	head4(AckROSIP): AckROSIP,
}

var sevenByteHeads = map[[4]byte]AckCode{
	head4(AckOSIPSz): AckOSIPSz,
}

func head4(a AckCode) [4]byte {
	var h [4]byte
	copy(h[:], a.raw[:4])
	return h
}

// DecodeAck implements the prefix-trie decoder described in spec.md §4.2.
// It is handed the 4 bytes already read off the wire, plus a callback to
// pull additional bytes if (and only if) the head is a prefix of a longer
// known token. A timeout raised from within that callback is a protocol
// error, not a transport one — the device committed to a longer token and
// then failed to deliver the rest of it.
func DecodeAck(head [4]byte, readMore byteReader) (AckCode, error) {
	if full, ok := fiveByteHeads[head]; ok {
		extra, err := readMore(1)
		if err != nil {
			return AckCode{}, fmt.Errorf("%w: reading tail of 5-byte ack %s: %v", ErrMalformedAck, full, err)
		}
		if head == head4(AckPSFW1) && len(extra) == 1 && extra[0] == AckPSFW1.raw[4] {
			return AckPSFW1, nil
		}
		if len(extra) != 1 || extra[0] != full.raw[4] {
			return AckCode{}, fmt.Errorf("%w: expected tail of %s, got %q", ErrMalformedAck, full, extra)
		}
		return full, nil
	}
	if full, ok := sevenByteHeads[head]; ok {
		extra, err := readMore(3)
		if err != nil {
			return AckCode{}, fmt.Errorf("%w: reading tail of 7-byte ack %s: %v", ErrMalformedAck, full, err)
		}
		if len(extra) != 3 || string(extra) != string(full.raw[4:7]) {
			return AckCode{}, fmt.Errorf("%w: expected tail of %s, got %q", ErrMalformedAck, full, extra)
		}
		return full, nil
	}
	return AckFromBytes(head[:]), nil
}
