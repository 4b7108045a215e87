// Package analyzer performs static introspection of dnx_fwr.bin/dnx_osr.img
// files on disk, independent of any live session: marker scanning, RSA
// signature location, Chaabi/token region bounds and a handful of sanity
// checks. Grounded on dnx-core::firmware, with its ad-hoc hash swapped for
// crypto/sha256 and its three render-format methods collapsed into one.
package analyzer

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"golang.org/x/exp/slices"

	"github.com/mfld-dnx/dnx/pkg/ifwiver"
	"github.com/mfld-dnx/dnx/pkg/protocol"
)

// FileType is the file kind detected from magic markers.
type FileType int

const (
	FileTypeUnknown FileType = iota
	FileTypeDnxFirmware
	FileTypeDnxOsRecovery
	FileTypeIfwi
	FileTypeAndroidBoot
)

func (t FileType) String() string {
	switch t {
	case FileTypeDnxFirmware:
		return "DnX Firmware"
	case FileTypeDnxOsRecovery:
		return "DnX OS Recovery"
	case FileTypeIfwi:
		return "IFWI Image"
	case FileTypeAndroidBoot:
		return "Android Boot"
	default:
		return "Unknown"
	}
}

// Marker records one magic pattern found in the file.
type Marker struct {
	Name        string
	Position    int
	Description string
}

// RsaSignature is the opaque RSA-2048 signature span following the $DnX
// marker, reported by position and content hash -- never validated, since
// this module never holds the signing key.
type RsaSignature struct {
	Offset int
	Size   int
	SHA256 string
}

// Token describes the security-token region preceding the Chaabi blob,
// and which SoC generation's marker convention produced it.
type Token struct {
	Marker   string
	Offset   int
	Size     int
	Platform string
}

// Chaabi bounds the CH00..CDPH Chaabi firmware region.
type Chaabi struct {
	Offset  int
	Size    int
	CH00Pos int
	CDPHPos int
}

// Check is one pass/fail sanity check run against the file.
type Check struct {
	Name    string
	Passed  bool
	Message string
}

// FirmwareAnalysis is the complete static analysis result for one file.
type FirmwareAnalysis struct {
	Path   string
	Size   int64
	Type   FileType
	SHA256 string

	Markers []Marker
	RSA     *RsaSignature
	Token   *Token
	Chaabi  *Chaabi

	Versions *ifwiver.FirmwareVersions
	Fuph     *protocol.FuphHeader

	Validations []Check

	data []byte
}

// Analyze reads path and runs every static check against it.
func Analyze(path string) (*FirmwareAnalysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("analyzer: reading %s: %w", path, err)
	}

	markers := findMarkers(data)
	a := &FirmwareAnalysis{
		Path:    path,
		Size:    int64(len(data)),
		Type:    detectFileType(data, markers),
		SHA256:  sha256Hex(data),
		Markers: markers,
		RSA:     extractRSASignature(data, markers),
		Token:   extractToken(markers),
		Chaabi:  extractChaabi(markers),
		data:    data,
	}
	if v, err := ifwiver.Extract(data); err == nil {
		a.Versions = v
	}
	if fuph, ok := detectFuph(data); ok {
		a.Fuph = &fuph
	}
	a.Validations = runValidations(data, markers)
	return a, nil
}

// IsValid reports whether every validation check passed.
func (a *FirmwareAnalysis) IsValid() bool {
	for _, v := range a.Validations {
		if !v.Passed {
			return false
		}
	}
	return true
}

// ValidationSummary renders "N/M checks passed".
func (a *FirmwareAnalysis) ValidationSummary() string {
	passed := 0
	for _, v := range a.Validations {
		if v.Passed {
			passed++
		}
	}
	return fmt.Sprintf("%d/%d checks passed", passed, len(a.Validations))
}

// Report renders the analysis as a multi-line text summary, for `dnx
// analyze`'s default output.
func (a *FirmwareAnalysis) Report() string {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s\n", a.Path)
	fmt.Fprintf(&b, "  size: %d bytes\n", a.Size)
	fmt.Fprintf(&b, "  type: %s\n", a.Type)
	fmt.Fprintf(&b, "  sha256: %s\n", a.SHA256)

	if len(a.Markers) > 0 {
		fmt.Fprintf(&b, "  markers:\n")
		for _, m := range a.Markers {
			fmt.Fprintf(&b, "    0x%05x %s (%s)\n", m.Position, m.Name, m.Description)
		}
	}
	if a.RSA != nil {
		fmt.Fprintf(&b, "  rsa signature: offset 0x%x, %d bytes, sha256 %s\n", a.RSA.Offset, a.RSA.Size, a.RSA.SHA256)
	}
	if a.Token != nil {
		fmt.Fprintf(&b, "  token: %s at 0x%x, %d bytes (%s)\n", a.Token.Marker, a.Token.Offset, a.Token.Size, a.Token.Platform)
	}
	if a.Chaabi != nil {
		fmt.Fprintf(&b, "  chaabi: offset 0x%x, %d bytes\n", a.Chaabi.Offset, a.Chaabi.Size)
	}
	if a.Versions != nil {
		fmt.Fprintf(&b, "  versions: ifwi %s, scu %s, chaabi %s\n", a.Versions.Ifwi, a.Versions.Scu, a.Versions.Chaabi)
	}
	fmt.Fprintf(&b, "  validation: %s\n", a.ValidationSummary())
	for _, v := range a.Validations {
		mark := "ok"
		if !v.Passed {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "    [%s] %s: %s\n", mark, v.Name, v.Message)
	}
	return b.String()
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func detectFileType(data []byte, markers []Marker) FileType {
	_, hasDnx := findMarker(markers, "$DnX")
	_, hasAndroid := findMarker(markers, "ANDROID!")
	_, hasFip := findMarker(markers, "$FIP")
	hasOsipSig := len(data) >= 4 && bytes.Equal(data[0:4], []byte("$OS$"))
	switch {
	case hasOsipSig:
		return FileTypeDnxOsRecovery
	case hasDnx:
		return FileTypeDnxFirmware
	case hasAndroid:
		return FileTypeAndroidBoot
	case hasFip:
		return FileTypeIfwi
	default:
		return FileTypeUnknown
	}
}

// markerPatterns is the set of magic markers find_markers scans for,
// mirroring dnx-core::firmware::find_markers's table.
var markerPatterns = []struct {
	name, pattern, description string
}{
	{"$DnX", "$DnX", "DnX signature marker"},
	{"$FIP", "$FIP", "FIP version block"},
	{"$CHT", "$CHT", "TNG A0 token marker"},
	{"DTKN", "DTKN", "TNG B0+ token marker"},
	{"ChPr", "ChPr", "TNG B0/ANN token marker"},
	{"CH00", "CH00", "Chaabi FW start"},
	{"CDPH", "CDPH", "Chaabi FW end"},
	{"IFWI", "IFWI", "IFWI chunk marker"},
	{"$OS$", "$OS$", "OS DnX header"},
	{"ANDROID!", "ANDROID!", "Android boot image"},
	{"$MN2", "$MN2", "manifest 2"},
}

func findMarkers(data []byte) []Marker {
	var markers []Marker
	for _, p := range markerPatterns {
		if pos := bytes.Index(data, []byte(p.pattern)); pos >= 0 {
			markers = append(markers, Marker{Name: p.name, Position: pos, Description: p.description})
		}
	}
	slices.SortFunc(markers, func(a, b Marker) int { return a.Position - b.Position })
	return markers
}

// rsaSignatureOffsetFromMarker and rsaSignatureSize mirror
// pkg/payload.FirmwarePayload.RSASignature: canonical images put the
// signature 8 bytes after the "$DnX" marker, running 256 bytes (RSA-2048).
const (
	rsaSignatureOffsetFromMarker = 0x08
	rsaSignatureSize             = 0x100
)

func extractRSASignature(data []byte, markers []Marker) *RsaSignature {
	m, ok := findMarker(markers, "$DnX")
	if !ok {
		return nil
	}
	offset := m.Position + rsaSignatureOffsetFromMarker
	if offset+rsaSignatureSize > len(data) {
		return nil
	}
	return &RsaSignature{Offset: offset, Size: rsaSignatureSize, SHA256: sha256Hex(data[offset : offset+rsaSignatureSize])}
}

func findMarker(markers []Marker, name string) (Marker, bool) {
	for _, m := range markers {
		if m.Name == name {
			return m, true
		}
	}
	return Marker{}, false
}

func extractToken(markers []Marker) *Token {
	ch00, ok := findMarker(markers, "CH00")
	if !ok {
		return nil
	}
	if cht, ok := findMarker(markers, "$CHT"); ok && cht.Position < ch00.Position {
		offset := satSub(cht.Position, 0x80)
		return &Token{Marker: "$CHT", Offset: offset, Size: satSub(ch00.Position, 0x80) - offset, Platform: "TNG A0 (Tangier A0)"}
	}
	if dtkn, ok := findMarker(markers, "DTKN"); ok && dtkn.Position < ch00.Position {
		offset := dtkn.Position
		return &Token{Marker: "DTKN", Offset: offset, Size: satSub(ch00.Position, 0x80) - offset, Platform: "TNG B0+"}
	}
	return nil
}

func extractChaabi(markers []Marker) *Chaabi {
	ch00, ok := findMarker(markers, "CH00")
	if !ok {
		return nil
	}
	cdph, ok := findMarker(markers, "CDPH")
	if !ok {
		return nil
	}
	offset := satSub(ch00.Position, 0x80)
	return &Chaabi{Offset: offset, Size: cdph.Position - offset, CH00Pos: ch00.Position, CDPHPos: cdph.Position}
}

func satSub(a, b int) int {
	if a < b {
		return 0
	}
	return a - b
}

// detectFuph tries each known FUPH variant size in the detection order
// spec.md assigns the device's own RUPHS handshake, accepting the first
// one whose declared component sizes stay inside the file. Static
// analysis has no device to ask, so this is a best-effort guess, not an
// authoritative parse.
func detectFuph(data []byte) (protocol.FuphHeader, bool) {
	if len(data) < protocol.DnxHeaderSize {
		return protocol.FuphHeader{}, false
	}
	body := data[protocol.DnxHeaderSize:]
	for _, size := range []int{protocol.FuphHeaderSizeD0, protocol.FuphHeaderSizeC0, protocol.FuphHeaderSizeOldMFD} {
		fuph, err := protocol.ParseFuphHeader(body, size)
		if err != nil {
			continue
		}
		total := fuph.Size() + 2*protocol.OneTwentyEightK +
			int(fuph.Psfw1Size()) + int(fuph.Psfw2Size()) + int(fuph.SsfwSize()) + int(fuph.RomPatchSize())
		if total <= len(body) {
			return fuph, true
		}
	}
	return protocol.FuphHeader{}, false
}

func runValidations(data []byte, markers []Marker) []Check {
	_, hasDnx := findMarker(markers, "$DnX")
	_, hasCh00 := findMarker(markers, "CH00")
	_, hasCdph := findMarker(markers, "CDPH")

	checks := []Check{
		{Name: "DnX signature", Passed: hasDnx, Message: presence(hasDnx, "found", "missing")},
		{Name: "Chaabi marker", Passed: hasCh00, Message: presence(hasCh00, "CH00 found", "CH00 missing")},
		{Name: "CDPH marker", Passed: hasCdph, Message: presence(hasCdph, "CDPH found", "CDPH missing")},
		{Name: "file size", Passed: len(data) > 1024, Message: fmt.Sprintf("%d bytes", len(data))},
	}
	return checks
}

func presence(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}
