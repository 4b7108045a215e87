package payload

import "bytes"

// chaabiHeaderSize is the size of the CDPH header block taken from the end
// of the file when assembling the SuCP payload.
const chaabiHeaderSize = 24

// FindChaabiRange locates the Token+FW region of a dnx_fwr.bin image: it
// runs from a token marker (DTKN, then $CHT, then ChPr, falling back to
// CH00-0x80) up to the CDPH marker. Grounded on
// dnx-core::state::handlers::chaabi::find_chaabi_range/build_chaabi_payload,
// reimplemented with bytes.Index instead of a hand-rolled windows scan.
func FindChaabiRange(data []byte) (start, end int, ok bool) {
	ch00 := bytes.Index(data, []byte("CH00"))
	cdph := bytes.Index(data, []byte("CDPH"))
	if ch00 < 0 || cdph < 0 || ch00 < 0x80 {
		return 0, 0, false
	}
	ch00Adjusted := ch00 - 0x80

	start = ch00Adjusted
	if dtkn := bytes.Index(data[:ch00], []byte("DTKN")); dtkn >= 0 {
		start = dtkn
	} else if cht := bytes.Index(data[:ch00], []byte("$CHT")); cht >= 0 {
		start = cht
	} else if chpr := bytes.Index(data[:ch00], []byte("ChPr")); chpr >= 0 {
		start = chpr
	}

	end = cdph
	if start >= end || end > len(data) {
		return 0, 0, false
	}
	return start, end, true
}

// BuildChaabiPayload assembles the SuCP body the device expects: the last
// 24 bytes of the file (the CDPH header, read from file end rather than the
// CDPH marker's own position) followed by the Token+FW region FindChaabiRange
// locates.
func BuildChaabiPayload(data []byte) ([]byte, bool) {
	start, end, ok := FindChaabiRange(data)
	if !ok || len(data) < chaabiHeaderSize {
		return nil, false
	}
	cdphHeader := data[len(data)-chaabiHeaderSize:]
	tokenFW := data[start:end]

	out := make([]byte, 0, chaabiHeaderSize+len(tokenFW))
	out = append(out, cdphHeader...)
	out = append(out, tokenFW...)
	return out, true
}
