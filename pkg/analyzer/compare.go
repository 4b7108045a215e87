package analyzer

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiffRegion is one contiguous run of differing bytes between two files,
// classified by where it falls in the canonical firmware layout.
type DiffRegion struct {
	Start       int
	End         int
	Size        int
	Description string
}

// FirmwareComparison is a byte-level diff between two firmware files.
type FirmwareComparison struct {
	File1, File2   string
	SizeMatch      bool
	RSAMatch       bool
	DiffCount      int
	DiffPercentage float64
	DiffRegions    []DiffRegion
}

// Compare reads path1 and path2 and computes their byte-level diff.
func Compare(path1, path2 string) (*FirmwareComparison, error) {
	data1, err := os.ReadFile(path1)
	if err != nil {
		return nil, fmt.Errorf("analyzer: reading %s: %w", path1, err)
	}
	data2, err := os.ReadFile(path2)
	if err != nil {
		return nil, fmt.Errorf("analyzer: reading %s: %w", path2, err)
	}

	sizeMatch := len(data1) == len(data2)

	const rsaOff, rsaEnd = 0x88, 0x188
	rsaMatch := false
	if len(data1) >= rsaEnd && len(data2) >= rsaEnd {
		rsaMatch = string(data1[rsaOff:rsaEnd]) == string(data2[rsaOff:rsaEnd])
	}

	minLen := len(data1)
	if len(data2) < minLen {
		minLen = len(data2)
	}
	diffCount := 0
	for i := 0; i < minLen; i++ {
		if data1[i] != data2[i] {
			diffCount++
		}
	}
	diffPct := 0.0
	if minLen > 0 {
		diffPct = float64(diffCount) / float64(minLen) * 100.0
	}

	return &FirmwareComparison{
		File1:          filepath.Base(path1),
		File2:          filepath.Base(path2),
		SizeMatch:      sizeMatch,
		RSAMatch:       rsaMatch,
		DiffCount:      diffCount,
		DiffPercentage: diffPct,
		DiffRegions:    findDiffRegions(data1, data2),
	}, nil
}

func findDiffRegions(data1, data2 []byte) []DiffRegion {
	minLen := len(data1)
	if len(data2) < minLen {
		minLen = len(data2)
	}

	var regions []DiffRegion
	inDiff := false
	diffStart := 0

	for i := 0; i < minLen; i++ {
		if data1[i] != data2[i] {
			if !inDiff {
				diffStart = i
				inDiff = true
			}
			continue
		}
		if inDiff {
			regions = append(regions, DiffRegion{
				Start:       diffStart,
				End:         i - 1,
				Size:        i - diffStart,
				Description: describeRegion(diffStart),
			})
			inDiff = false
		}
	}
	if inDiff {
		regions = append(regions, DiffRegion{
			Start:       diffStart,
			End:         minLen - 1,
			Size:        minLen - diffStart,
			Description: describeRegion(diffStart),
		})
	}
	return regions
}

// describeRegion classifies a byte offset into the canonical firmware
// layout's coarse sections, for labeling diff regions in a comparison
// report.
func describeRegion(offset int) string {
	switch {
	case offset < 0x80:
		return "Header"
	case offset < 0x188:
		return "RSA Signature"
	case offset < 0x4B00:
		return "VRL/IFWI"
	case offset < 0x8B00:
		return "Token"
	case offset < 0x1AB00:
		return "Chaabi FW"
	default:
		return "CDPH/Footer"
	}
}

// Report renders the comparison as a multi-line text summary.
func (c *FirmwareComparison) Report() string {
	out := fmt.Sprintf("Comparing: %s vs %s\n", c.File1, c.File2)
	out += "==================================================\n"
	out += fmt.Sprintf("Size match: %v\n", c.SizeMatch)
	out += fmt.Sprintf("RSA match: %v\n", c.RSAMatch)
	out += fmt.Sprintf("Different bytes: %d (%.3f%%)\n", c.DiffCount, c.DiffPercentage)
	if len(c.DiffRegions) > 0 {
		out += fmt.Sprintf("Diff regions (%d):\n", len(c.DiffRegions))
		for _, r := range c.DiffRegions {
			out += fmt.Sprintf("  0x%05x-0x%05x (%d bytes) %s\n", r.Start, r.End, r.Size, r.Description)
		}
	}
	return out
}
