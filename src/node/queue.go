package node

import (
	"sort"
	"sync"

	"github.com/mosaicnetworks/tangle/src/tangle"
)

type queueItem struct {
	tx     *tangle.Transaction
	weight int
	origin string
}

// before orders items by decreasing weight magnitude, then by decreasing hash.
func (a *queueItem) before(b *queueItem) bool {
	if a.weight != b.weight {
		return a.weight > b.weight
	}
	return a.tx.Hash.Compare(b.tx.Hash) > 0
}

// BroadcastQueue is a bounded priority queue of transactions to broadcast.
// When it overflows, the item with the lowest priority is dropped.
type BroadcastQueue struct {
	sync.Mutex
	items    []*queueItem
	capacity int
	notifyCh chan struct{}
}

// NewBroadcastQueue creates a queue holding at most capacity transactions.
func NewBroadcastQueue(capacity int) *BroadcastQueue {
	return &BroadcastQueue{
		items:    []*queueItem{},
		capacity: capacity,
		notifyCh: make(chan struct{}, 1),
	}
}

// Push queues tx. origin is the address of the neighbor it came from, or
// empty for local transactions. A transaction already in the queue is
// ignored.
func (q *BroadcastQueue) Push(tx *tangle.Transaction, origin string) {
	item := &queueItem{
		tx:     tx,
		weight: tx.WeightMagnitude(),
		origin: origin,
	}

	q.Lock()
	i := sort.Search(len(q.items), func(i int) bool {
		return !q.items[i].before(item)
	})
	if i < len(q.items) && q.items[i].tx.Hash == tx.Hash {
		q.Unlock()
		return
	}

	q.items = append(q.items, nil)
	copy(q.items[i+1:], q.items[i:])
	q.items[i] = item

	if len(q.items) > q.capacity {
		q.items[len(q.items)-1] = nil
		q.items = q.items[:len(q.items)-1]
	}
	q.Unlock()

	select {
	case q.notifyCh <- struct{}{}:
	default:
	}
}

// Pop removes the transaction with the highest priority.
func (q *BroadcastQueue) Pop() (*tangle.Transaction, string, bool) {
	q.Lock()
	defer q.Unlock()

	if len(q.items) == 0 {
		return nil, "", false
	}

	item := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]

	return item.tx, item.origin, true
}

// Len returns the number of queued transactions.
func (q *BroadcastQueue) Len() int {
	q.Lock()
	defer q.Unlock()
	return len(q.items)
}

// Notify returns a channel that receives a value after a Push.
func (q *BroadcastQueue) Notify() <-chan struct{} {
	return q.notifyCh
}
