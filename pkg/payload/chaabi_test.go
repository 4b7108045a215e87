package payload

import "testing"

func TestFindChaabiRangeFallsBackToCH00Offset(t *testing.T) {
	var data []byte
	data = append(data, make([]byte, 0x80)...)
	data = append(data, []byte("CH00")...)
	data = append(data, make([]byte, 16)...)
	data = append(data, []byte("CDPH")...)

	start, end, ok := FindChaabiRange(data)
	if !ok {
		t.Fatal("expected a range")
	}
	if start != 0 {
		t.Errorf("start = 0x%x, want 0x0 (CH00 - 0x80)", start)
	}
	if end != 0x80+4+16 {
		t.Errorf("end = %d, want %d", end, 0x80+4+16)
	}
}

func TestFindChaabiRangePrefersDTKNMarker(t *testing.T) {
	var data []byte
	data = append(data, make([]byte, 0x10)...)
	dtknPos := len(data)
	data = append(data, []byte("DTKN")...)
	data = append(data, make([]byte, 0x80)...)
	data = append(data, []byte("CH00")...)
	data = append(data, make([]byte, 8)...)
	data = append(data, []byte("CDPH")...)

	start, _, ok := FindChaabiRange(data)
	if !ok {
		t.Fatal("expected a range")
	}
	if start != dtknPos {
		t.Errorf("start = %d, want DTKN position %d", start, dtknPos)
	}
}

func TestFindChaabiRangeMissingMarkersFails(t *testing.T) {
	data := make([]byte, 256)
	if _, _, ok := FindChaabiRange(data); ok {
		t.Fatal("expected no range for data without CH00/CDPH")
	}
}

func TestBuildChaabiPayloadUsesTrailingCDPHHeader(t *testing.T) {
	var data []byte
	data = append(data, make([]byte, 0x80)...) // Token+FW region, CH00-0x80..CH00
	data = append(data, []byte("CH00")...)
	data = append(data, []byte("-fw-bytes-")...)
	data = append(data, []byte("CDPH")...)
	trailer := make([]byte, chaabiHeaderSize)
	for i := range trailer {
		trailer[i] = byte(0xF0 + i%8)
	}
	data = append(data, trailer...)

	start, end, ok := FindChaabiRange(data)
	if !ok {
		t.Fatal("FindChaabiRange: expected a range")
	}

	out, ok := BuildChaabiPayload(data)
	if !ok {
		t.Fatal("expected a payload")
	}
	if string(out[:chaabiHeaderSize]) != string(trailer) {
		t.Errorf("payload doesn't start with trailing CDPH header")
	}
	if string(out[chaabiHeaderSize:]) != string(data[start:end]) {
		t.Errorf("payload body doesn't match the located Token+FW range")
	}
}
