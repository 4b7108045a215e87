// Package payload parses firmware and OS recovery images into the pieces a
// DnX session hands to the device on demand, and slices those pieces into
// the fixed-size chunks the wire protocol expects.
package payload

// ChunkIterator walks a byte slice in fixed-size chunks, the last of which
// may be shorter than chunk_size but is never emitted with zero length
// unless the source itself is empty. Shared by the firmware component
// iterators and the OS image's RIMG iterator (both 64 KiB chunks), generalized from dnx-core's
// separate ChunkIterator/OsChunkIterator, which differ only in chunk size.
type ChunkIterator struct {
	data      []byte
	chunkSize int
	offset    int
	current   int
	total     int
}

// NewChunkIterator returns an iterator over data in chunkSize-byte pieces.
func NewChunkIterator(data []byte, chunkSize int) *ChunkIterator {
	total := 0
	if len(data) > 0 {
		total = (len(data) + chunkSize - 1) / chunkSize
	}
	return &ChunkIterator{data: data, chunkSize: chunkSize, total: total}
}

// Total reports the number of chunks the iterator will emit, including a
// final partial one.
func (c *ChunkIterator) Total() int { return c.total }

// Current reports how many chunks have been emitted so far.
func (c *ChunkIterator) Current() int { return c.current }

// Remaining reports how many bytes have not yet been emitted.
func (c *ChunkIterator) Remaining() int {
	r := len(c.data) - c.offset
	if r < 0 {
		return 0
	}
	return r
}

// ProgressPct reports completion as an integer percentage; an iterator over
// empty data reports 100.
func (c *ChunkIterator) ProgressPct() int {
	if c.total == 0 {
		return 100
	}
	return (c.current * 100) / c.total
}

// Next returns the next chunk, or nil, false once the data is exhausted.
func (c *ChunkIterator) Next() ([]byte, bool) {
	if c.offset >= len(c.data) {
		return nil, false
	}
	end := c.offset + c.chunkSize
	if end > len(c.data) {
		end = len(c.data)
	}
	chunk := c.data[c.offset:end]
	c.offset = end
	c.current++
	return chunk, true
}

// Reset rewinds the iterator to its first chunk.
func (c *ChunkIterator) Reset() {
	c.offset = 0
	c.current = 0
}
