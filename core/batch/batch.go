package batch

// DefaultChunkSize is used when a non-positive size is requested.
const DefaultChunkSize = 50

// Chunk is one ordered slice of work. Sequence is 1-based.
type Chunk[T any] struct {
	Sequence int
	Items    []T
}

// Partition splits items into consecutive non-overlapping chunks of at most size items.
func Partition[T any](items []T, size int) []Chunk[T] {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([]Chunk[T], 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, Chunk[T]{
			Sequence: len(chunks) + 1,
			Items:    items[start:end:end],
		})
	}
	return chunks
}

// Counts are the per-device tallies of a chunk or run.
type Counts struct {
	Processed int `json:"processed"`
	Synced    int `json:"synced"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Restored  int `json:"restored"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
	Cleared   int `json:"cleared"`
}

// Add accumulates o into c.
func (c *Counts) Add(o Counts) {
	c.Processed += o.Processed
	c.Synced += o.Synced
	c.Created += o.Created
	c.Updated += o.Updated
	c.Restored += o.Restored
	c.Skipped += o.Skipped
	c.Errors += o.Errors
	c.Cleared += o.Cleared
}

// Summary reports one chunk.
type Summary struct {
	Sequence int `json:"sequence"`
	Size     int `json:"size"`
	Counts
	Attempts   int    `json:"attempts"`
	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// RunSummary aggregates every chunk of a run.
type RunSummary struct {
	Chunks int `json:"chunks"`
	Counts
	Summaries    []Summary `json:"summaries"`
	FailedChunks []int     `json:"failed_chunks,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
}
