// Package planner turns a remote resource's advertised size into an ordered,
// contiguous cover of byte ranges.
package planner

// Chunk is one byte range of the remote resource, inclusive at both ends:
// the bytes [Start, EndInclusive] belong to chunk Index.
type Chunk struct {
	Index        int
	Start        int64
	EndInclusive int64
}

// Size returns the number of bytes covered by the chunk.
func (c Chunk) Size() int64 {
	return c.EndInclusive - c.Start + 1
}

// Plan produces the ordered list of chunks covering [0, total) in steps of
// chunkSize. The final chunk may be shorter than chunkSize. Plan(0, n)
// returns an empty, non-nil slice.
func Plan(total int64, chunkSize int64) []Chunk {
	chunks := make([]Chunk, 0)
	if total <= 0 || chunkSize <= 0 {
		return chunks
	}

	for start, idx := int64(0), 0; start < total; start, idx = start+chunkSize, idx+1 {
		end := start + chunkSize
		if end > total {
			end = total
		}
		chunks = append(chunks, Chunk{
			Index:        idx,
			Start:        start,
			EndInclusive: end - 1,
		})
	}
	return chunks
}
