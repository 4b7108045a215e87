package analyzer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mfld-dnx/dnx/pkg/protocol"
)

// buildFirmware assembles a minimal synthetic dnx_fwr.bin: DnX header,
// FUPH, LOFW/HIFW, the $DnX marker plus RSA region, and Chaabi CH00/CDPH
// markers -- mirroring pkg/payload's own buildFirmware fixture.
func buildFirmware(t *testing.T) []byte {
	t.Helper()

	fuph := make([]byte, protocol.FuphHeaderSizeC0)
	lofw := make([]byte, protocol.OneTwentyEightK)
	hifw := make([]byte, protocol.OneTwentyEightK)

	body := append([]byte{}, fuph...)
	body = append(body, lofw...)
	body = append(body, hifw...)

	header := protocol.NewDnxHeader(body)
	data := append([]byte{}, header.Bytes()...)
	data = append(data, body...)

	data = append(data, []byte("$DnX")...)
	data = append(data, make([]byte, rsaSignatureSize)...)

	ch00At := len(data) + 0x80
	for len(data) < ch00At {
		data = append(data, 0xAA)
	}
	data = append(data, []byte("CH00")...)
	data = append(data, make([]byte, 32)...)
	data = append(data, []byte("CDPH")...)
	data = append(data, make([]byte, 24)...)

	return data
}

func writeTempFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestAnalyzeDetectsDnxFirmware(t *testing.T) {
	path := writeTempFile(t, "dnx_fwr.bin", buildFirmware(t))
	a, err := Analyze(path)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if a.Type != FileTypeDnxFirmware {
		t.Errorf("Type = %v, want FileTypeDnxFirmware", a.Type)
	}
	if a.RSA == nil {
		t.Fatal("RSA = nil, want a signature")
	}
	if a.Chaabi == nil {
		t.Fatal("Chaabi = nil, want a region")
	}
}

func TestAnalyzeMarkersAreSortedByPosition(t *testing.T) {
	path := writeTempFile(t, "dnx_fwr.bin", buildFirmware(t))
	a, err := Analyze(path)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	for i := 1; i < len(a.Markers); i++ {
		if a.Markers[i].Position < a.Markers[i-1].Position {
			t.Fatalf("markers not sorted: %+v", a.Markers)
		}
	}
}

func TestAnalyzeValidFirmwarePassesAllChecks(t *testing.T) {
	path := writeTempFile(t, "dnx_fwr.bin", buildFirmware(t))
	a, err := Analyze(path)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !a.IsValid() {
		t.Errorf("IsValid() = false, want true; validations = %+v", a.Validations)
	}
}

func TestAnalyzeMissingChaabiFailsValidation(t *testing.T) {
	data := buildFirmware(t)
	data = data[:len(data)-80] // truncate away the CH00/CDPH markers
	path := writeTempFile(t, "dnx_fwr.bin", data)

	a, err := Analyze(path)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if a.IsValid() {
		t.Error("IsValid() = true, want false once Chaabi markers are gone")
	}
}

func TestAnalyzeUnknownFileType(t *testing.T) {
	path := writeTempFile(t, "garbage.bin", make([]byte, 2048))
	a, err := Analyze(path)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if a.Type != FileTypeUnknown {
		t.Errorf("Type = %v, want FileTypeUnknown", a.Type)
	}
}

func TestCompareIdenticalFiles(t *testing.T) {
	data := buildFirmware(t)
	p1 := writeTempFile(t, "a.bin", data)
	p2 := writeTempFile(t, "b.bin", data)

	c, err := Compare(p1, p2)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if !c.SizeMatch || !c.RSAMatch || c.DiffCount != 0 {
		t.Errorf("Compare() = %+v, want a clean match", c)
	}
}

func TestCompareDivergentFilesReportRegions(t *testing.T) {
	data1 := buildFirmware(t)
	data2 := append([]byte{}, data1...)
	data2[0x90] ^= 0xFF
	data2[0x200] ^= 0xFF

	p1 := writeTempFile(t, "a.bin", data1)
	p2 := writeTempFile(t, "b.bin", data2)

	c, err := Compare(p1, p2)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if c.DiffCount != 2 {
		t.Errorf("DiffCount = %d, want 2", c.DiffCount)
	}
	if len(c.DiffRegions) != 2 {
		t.Fatalf("DiffRegions = %+v, want 2 regions", c.DiffRegions)
	}
}

func TestDescribeRegionBoundaries(t *testing.T) {
	cases := []struct {
		offset int
		want   string
	}{
		{0x10, "Header"},
		{0x100, "RSA Signature"},
		{0x1000, "VRL/IFWI"},
		{0x5000, "Token"},
		{0x10000, "Chaabi FW"},
		{0x20000, "CDPH/Footer"},
	}
	for _, tc := range cases {
		if got := describeRegion(tc.offset); got != tc.want {
			t.Errorf("describeRegion(0x%x) = %q, want %q", tc.offset, got, tc.want)
		}
	}
}
