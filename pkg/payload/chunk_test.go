package payload

import "testing"

func TestChunkIteratorCoversExactlyOnce(t *testing.T) {
	sizes := []int{0, 1, 4096, 128*1024 - 1, 128 * 1024, 128*1024 + 1, 300 * 1024}
	for _, n := range sizes {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i)
		}
		it := NewChunkIterator(data, 128*1024)

		var reassembled []byte
		count := 0
		for {
			chunk, ok := it.Next()
			if !ok {
				break
			}
			if len(chunk) == 0 {
				t.Fatalf("size %d: got a zero-length chunk before exhaustion", n)
			}
			reassembled = append(reassembled, chunk...)
			count++
		}
		if len(reassembled) != n {
			t.Errorf("size %d: reassembled %d bytes, want %d", n, len(reassembled), n)
		}
		for i := range reassembled {
			if reassembled[i] != data[i] {
				t.Fatalf("size %d: byte %d mismatch", n, i)
			}
		}
		if it.Total() != count {
			t.Errorf("size %d: Total() = %d, want %d (actual chunk count)", n, it.Total(), count)
		}
	}
}

func TestChunkIteratorEmptyDataYieldsNoChunks(t *testing.T) {
	it := NewChunkIterator(nil, 64*1024)
	if it.Total() != 0 {
		t.Errorf("Total() = %d, want 0", it.Total())
	}
	if _, ok := it.Next(); ok {
		t.Error("Next() on empty data should report false")
	}
	if it.ProgressPct() != 100 {
		t.Errorf("ProgressPct() on empty data = %d, want 100", it.ProgressPct())
	}
}

func TestChunkIteratorReset(t *testing.T) {
	data := make([]byte, 5000)
	it := NewChunkIterator(data, 2048)
	var first [][]byte
	for {
		c, ok := it.Next()
		if !ok {
			break
		}
		first = append(first, c)
	}
	it.Reset()
	var second [][]byte
	for {
		c, ok := it.Next()
		if !ok {
			break
		}
		second = append(second, c)
	}
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ after reset: %d vs %d", len(first), len(second))
	}
}
