package app

import "github.com/fd1az/mev-searcher/business/opportunity/domain"

// entry is one slot in a minHeap.
type entry struct {
	priority domain.OpportunityPriority
	index    int
}

// minHeap is a container/heap.Interface ordered by ascending
// PriorityScore, so its root is always the current lowest-scored
// entry — the one a bounded queue evicts to make room for something
// better. Finding the current *maximum* (what Dequeue needs) is a
// linear scan over this same slice; queues are bounded to a few
// hundred entries, so that scan is cheap relative to the log(n)
// win a max-heap would buy for the hot path we don't have.
type minHeap []*entry

func (h minHeap) Len() int { return len(h) }

func (h minHeap) Less(i, j int) bool {
	return h[i].priority.PriorityScore < h[j].priority.PriorityScore
}

func (h minHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *minHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *minHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}
