package gap

import (
	"fmt"
	"io"
)

// Source yields records sequentially in strictly increasing index order.
// Next returns io.EOF once the stream is exhausted. Callers never invoke
// Next concurrently.
type Source interface {
	Next() (Record, error)
}

// Batch is a contiguous slice of the capture's index range, owned by
// exactly one worker after dispatch.
type Batch struct {
	ID      int
	Records []Record
}

func (b Batch) First() Record { return b.Records[0] }
func (b Batch) Last() Record  { return b.Records[len(b.Records)-1] }

// Batcher slices a Source into batches of at most size records, in
// ascending ID order, with no record skipped, duplicated, or reordered.
// The final batch may be short.
type Batcher struct {
	src    Source
	size   int
	nextID int
	done   bool
}

func NewBatcher(src Source, size int) (*Batcher, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}
	return &Batcher{src: src, size: size}, nil
}

// Next returns the next batch, or io.EOF when the source is exhausted.
// Any other error comes from the source and is returned as-is.
func (b *Batcher) Next() (Batch, error) {
	if b.done {
		return Batch{}, io.EOF
	}

	records := make([]Record, 0, b.size)
	for len(records) < b.size {
		rec, err := b.src.Next()
		if err == io.EOF {
			b.done = true
			break
		}
		if err != nil {
			return Batch{}, err
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return Batch{}, io.EOF
	}

	batch := Batch{ID: b.nextID, Records: records}
	b.nextID++
	return batch, nil
}
