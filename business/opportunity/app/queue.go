package app

import (
	"container/heap"
	"sort"
	"sync"
	"time"

	"github.com/fd1az/mev-searcher/business/opportunity/domain"
)

// QueueStats mirrors the running counters a bounded queue keeps for
// observability, per §4.6's "updates running stats" requirement.
type QueueStats struct {
	TotalAdded       uint64
	TotalExecuted    uint64
	TotalExpired     uint64
	TotalRejected    uint64
	AvgPriorityScore float64
	MaxPriorityScore float64
	CurrentSize      int
}

// Queue is a bounded, TTL-aware priority queue over
// OpportunityPriority entries. Eviction of the current minimum is
// O(log n) via the underlying min-heap; Dequeue scans for the current
// maximum, acceptable at the queue's bounded size.
type Queue struct {
	mu      sync.Mutex
	heap    minHeap
	maxSize int
	ttl     time.Duration
	stats   QueueStats
}

// NewQueue builds a Queue bounded to maxSize entries, each defaulting
// to ttl from insertion time.
func NewQueue(maxSize int, ttl time.Duration) *Queue {
	q := &Queue{maxSize: maxSize, ttl: ttl}
	heap.Init(&q.heap)
	return q
}

// Insert rejects p outright if it is already expired, otherwise queues
// it — evicting the current minimum first if the queue is at capacity
// and p's score beats it, or rejecting p if it doesn't.
func (q *Queue) Insert(p domain.OpportunityPriority, now time.Time) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if p.IsExpired(now) {
		q.stats.TotalRejected++
		return false
	}

	if q.heap.Len() >= q.maxSize {
		min := q.heap[0]
		if p.PriorityScore <= min.priority.PriorityScore {
			q.stats.TotalRejected++
			return false
		}
		heap.Pop(&q.heap)
	}

	heap.Push(&q.heap, &entry{priority: p})

	q.stats.TotalAdded++
	q.stats.CurrentSize = q.heap.Len()
	if q.stats.TotalAdded == 1 {
		q.stats.AvgPriorityScore = p.PriorityScore
		q.stats.MaxPriorityScore = p.PriorityScore
	} else {
		n := float64(q.stats.TotalAdded)
		q.stats.AvgPriorityScore = (q.stats.AvgPriorityScore*(n-1) + p.PriorityScore) / n
		if p.PriorityScore > q.stats.MaxPriorityScore {
			q.stats.MaxPriorityScore = p.PriorityScore
		}
	}
	return true
}

// purgeExpired drops every expired entry. Callers must hold q.mu.
func (q *Queue) purgeExpired(now time.Time) {
	survivors := q.heap[:0]
	var expired int
	for _, e := range q.heap {
		if e.priority.IsExpired(now) {
			expired++
			continue
		}
		survivors = append(survivors, e)
	}
	q.heap = survivors
	heap.Init(&q.heap)

	if expired > 0 {
		q.stats.TotalExpired += uint64(expired)
		q.stats.CurrentSize = q.heap.Len()
	}
}

// Dequeue purges expired entries, then pops and returns the
// highest-scored remaining entry.
func (q *Queue) Dequeue(now time.Time) (domain.OpportunityPriority, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.purgeExpired(now)
	if q.heap.Len() == 0 {
		return domain.OpportunityPriority{}, false
	}

	maxIdx := 0
	for i := 1; i < q.heap.Len(); i++ {
		if q.heap[i].priority.PriorityScore > q.heap[maxIdx].priority.PriorityScore {
			maxIdx = i
		}
	}
	e := heap.Remove(&q.heap, maxIdx).(*entry)

	q.stats.TotalExecuted++
	q.stats.CurrentSize = q.heap.Len()
	return e.priority, true
}

// DequeueMatching purges expired entries, then pops the highest-scored
// entry whose Opportunity satisfies match, leaving the relative order
// of every entry it skips over unchanged.
func (q *Queue) DequeueMatching(now time.Time, match func(domain.Opportunity) bool) (domain.OpportunityPriority, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.purgeExpired(now)

	bestIdx := -1
	for i := 0; i < q.heap.Len(); i++ {
		if !match(q.heap[i].priority.Opportunity) {
			continue
		}
		if bestIdx == -1 || q.heap[i].priority.PriorityScore > q.heap[bestIdx].priority.PriorityScore {
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return domain.OpportunityPriority{}, false
	}
	e := heap.Remove(&q.heap, bestIdx).(*entry)

	q.stats.TotalExecuted++
	q.stats.CurrentSize = q.heap.Len()
	return e.priority, true
}

// Size returns the current entry count, including not-yet-purged
// expired entries.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// Stats returns a snapshot of the running counters.
func (q *Queue) Stats() QueueStats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// Clear empties the queue without affecting cumulative stats other
// than CurrentSize.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.heap = q.heap[:0]
	q.stats.CurrentSize = 0
}

// All returns every entry, highest score first.
func (q *Queue) All() []domain.OpportunityPriority {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]domain.OpportunityPriority, len(q.heap))
	for i, e := range q.heap {
		out[i] = e.priority
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriorityScore > out[j].PriorityScore })
	return out
}
