package payload

import (
	"testing"

	"github.com/mfld-dnx/dnx/pkg/protocol"
)

func buildOsImage(t *testing.T, partitionSizes []int) []byte {
	t.Helper()

	table := make([]byte, protocol.OsipTableSize)
	copy(table[0:4], []byte{0x24, 0x4F, 0x53, 0x24}) // "$OS$"
	table[protocol.OsipNumPointersOffset] = byte(len(partitionSizes))

	for i, size := range partitionSizes {
		off := protocol.OSPartitionSizeOffset(i)
		table[off] = byte(size)
		table[off+1] = byte(size >> 8)
		table[off+2] = byte(size >> 16)
		table[off+3] = byte(size >> 24)
	}

	data := append([]byte{}, table...)
	for i, size := range partitionSizes {
		fill := byte(0x10 + i)
		part := make([]byte, size)
		for j := range part {
			part[j] = fill
		}
		data = append(data, part...)
	}
	return data
}

func TestNewOsPayloadRejectsZeroPartitions(t *testing.T) {
	data := buildOsImage(t, nil)
	_, err := NewOsPayload(data)
	if err == nil {
		t.Fatal("expected error for zero-partition OSIP table")
	}
}

func TestOsPayloadPartitionContents(t *testing.T) {
	data := buildOsImage(t, []int{100 * 1024, 50 * 1024})
	p, err := NewOsPayload(data)
	if err != nil {
		t.Fatal(err)
	}
	if p.NumPartitions() != 2 {
		t.Fatalf("NumPartitions() = %d, want 2", p.NumPartitions())
	}

	part0, err := p.Partition(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(part0) != 100*1024 || part0[0] != 0x10 {
		t.Errorf("partition 0 mismatch: len=%d first=%x", len(part0), part0[0])
	}

	part1, err := p.Partition(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(part1) != 50*1024 || part1[0] != 0x11 {
		t.Errorf("partition 1 mismatch: len=%d first=%x", len(part1), part1[0])
	}

	if _, err := p.Partition(2); err == nil {
		t.Error("expected out-of-range error for partition 2")
	}
}

func TestOsPayloadRIMGChunksCoverWholePartition(t *testing.T) {
	size := 150 * 1024
	data := buildOsImage(t, []int{size})
	p, err := NewOsPayload(data)
	if err != nil {
		t.Fatal(err)
	}

	it, err := p.RIMGChunks(0)
	if err != nil {
		t.Fatal(err)
	}
	total := 0
	chunks := 0
	for {
		chunk, ok := it.Next()
		if !ok {
			break
		}
		total += len(chunk)
		chunks++
		if len(chunk) == 0 {
			t.Fatal("got a zero-length chunk before exhaustion")
		}
	}
	if total != size {
		t.Errorf("total bytes covered = %d, want %d", total, size)
	}
	if chunks != 3 {
		t.Errorf("chunks = %d, want 3 (64K+64K+22K)", chunks)
	}
}

func TestOsPayloadROSIPAndOSIPSz(t *testing.T) {
	data := buildOsImage(t, []int{4096})
	p, err := NewOsPayload(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.ROSIPBytes()) != protocol.OsipTableSize {
		t.Errorf("ROSIPBytes() len = %d, want %d", len(p.ROSIPBytes()), protocol.OsipTableSize)
	}
	want := []byte{0x00, 0x02, 0, 0}
	if string(p.OSIPSzBytes()) != string(want) {
		t.Errorf("OSIPSzBytes() = %x, want %x", p.OSIPSzBytes(), want)
	}
}
