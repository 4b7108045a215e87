package payload

import (
	"fmt"

	"github.com/mfld-dnx/dnx/pkg/protocol"
)

// OsPayload is a parsed OS recovery image: the 512-byte OSIP partition
// table followed by one or more sequential partitions, sized per the
// table's entries. Grounded on dnx-core::payload::os::OsImage, whose
// sequential-layout assumption ("partition data follows the table in
// table order, no gaps") is carried forward unchanged.
type OsPayload struct {
	data       []byte
	osip       protocol.OsipHeader
	partitions [][2]int // (offset, size) pairs
}

// osipSignature is "$OS$" read little-endian as a uint32.
const osipSignature = 0x24534F24

// NewOsPayload parses the fixed 512-byte OSIP table at offset 0 and lays
// out NumPointers partitions sequentially after it.
func NewOsPayload(data []byte) (*OsPayload, error) {
	if len(data) < protocol.OsipTableSize {
		return nil, &InvalidOsImageError{Reason: fmt.Sprintf("image is %d bytes, need at least %d", len(data), protocol.OsipTableSize)}
	}
	osip, err := protocol.ParseOsipHeader(data)
	if err != nil {
		return nil, &InvalidOsImageError{Reason: err.Error()}
	}
	if osip.Signature != osipSignature {
		return nil, &InvalidOsImageError{Reason: fmt.Sprintf("bad OSIP signature 0x%08x", osip.Signature)}
	}
	if osip.NumPointers < 1 {
		return nil, &InvalidOsImageError{Reason: "OSIP table declares zero partitions"}
	}

	partitions := make([][2]int, 0, osip.NumPointers)
	offset := protocol.OsipTableSize
	for i := 0; i < int(osip.NumPointers); i++ {
		size, err := osip.PartitionSize(i)
		if err != nil {
			return nil, &InvalidOsImageError{Reason: err.Error()}
		}
		partitions = append(partitions, [2]int{offset, int(size)})
		offset += int(size)
	}

	return &OsPayload{data: data, osip: osip, partitions: partitions}, nil
}

// NumPartitions reports how many OS partitions the OSIP table declares.
func (p *OsPayload) NumPartitions() int { return len(p.partitions) }

// Partition returns the bytes of partition n.
func (p *OsPayload) Partition(n int) ([]byte, error) {
	if n < 0 || n >= len(p.partitions) {
		return nil, &InvalidOsImageError{Reason: fmt.Sprintf("partition %d out of range (have %d)", n, len(p.partitions))}
	}
	offset, size := p.partitions[n][0], p.partitions[n][1]
	if offset+size > len(p.data) {
		return nil, &InvalidOsImageError{Reason: fmt.Sprintf("partition %d extends past end of image", n)}
	}
	return p.data[offset : offset+size], nil
}

// OSIPSzBytes is the 4-byte little-endian OSIP table size, sent in answer
// to "OSIP Sz".
func (p *OsPayload) OSIPSzBytes() []byte {
	n := uint32(protocol.OsipTableSize)
	return []byte{byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
}

// ROSIPBytes is the raw 512-byte OSIP table, sent in answer to ROSIP.
func (p *OsPayload) ROSIPBytes() []byte { return p.osip.Bytes() }

// RIMGChunks returns a 64 KiB chunk iterator over the given partition,
// sent in answer to RIMG.
func (p *OsPayload) RIMGChunks(partitionIndex int) (*ChunkIterator, error) {
	part, err := p.Partition(partitionIndex)
	if err != nil {
		return nil, err
	}
	return NewChunkIterator(part, protocol.SixtyFourK), nil
}
