package merge

import (
	"container/heap"

	"github.com/posdb/chessposdb/internal/format"
	"github.com/posdb/chessposdb/internal/runfile"
)

// streamItem is one pending entry from one input file, tracked in the
// tournament heap.
type streamItem struct {
	entry   format.Entry
	iter    *runfile.Iterator
	stride  int64
	iterIdx int
}

type streamHeap []*streamItem

func (h streamHeap) Len() int { return len(h) }
func (h streamHeap) Less(i, j int) bool {
	return h[i].entry.Key.Compare(h[j].entry.Key) < 0
}
func (h streamHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *streamHeap) Push(x any)        { *h = append(*h, x.(*streamItem)) }
func (h *streamHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// mergeStreams performs the classic tournament/heap merge of spec
// §4.4.1 rule 4: entries are drained from every iterator in full
// order, full-equal runs are combined via Entry.Combine, and the
// result is handed to emit in sorted, de-duplicated order. onBytes
// reports how many stride-bytes were consumed, for progress.
func mergeStreams(iters []*runfile.Iterator, f *format.Format, emit func(format.Entry) error, onBytes func(int64)) error {
	stride := runfile.EntryStride(f)

	h := make(streamHeap, 0, len(iters))
	for i, it := range iters {
		e, ok, err := it.Next()
		if err != nil {
			return err
		}
		if ok {
			h = append(h, &streamItem{entry: e, iter: it, stride: stride, iterIdx: i})
		}
	}
	heap.Init(&h)

	var (
		haveAccumulator bool
		accumulator     format.Entry
	)

	for h.Len() > 0 {
		top := heap.Pop(&h).(*streamItem)
		if onBytes != nil {
			onBytes(top.stride)
		}

		if !haveAccumulator {
			accumulator = top.entry
			haveAccumulator = true
		} else if accumulator.Key.EqualFull(top.entry.Key) {
			accumulator = accumulator.Combine(top.entry)
		} else {
			if err := emit(accumulator); err != nil {
				return err
			}
			accumulator = top.entry
		}

		next, ok, err := top.iter.Next()
		if err != nil {
			return err
		}
		if ok {
			top.entry = next
			heap.Push(&h, top)
		}
	}

	if haveAccumulator {
		if err := emit(accumulator); err != nil {
			return err
		}
	}
	return nil
}
