package node

import (
	"fmt"
	"sort"
	"testing"

	"github.com/mosaicnetworks/tangle/src/tangle"
)

func queueTransactions(n int) []*tangle.Transaction {
	txs := make([]*tangle.Transaction, n)
	for i := range txs {
		txs[i] = tangle.NewTransaction(tangle.TestHash(fmt.Sprintf("address_%d", i)),
			0,
			int64(i+1),
			0,
			0,
			tangle.TestHash("bundle"),
			tangle.NullHash,
			tangle.NullHash)
	}
	return txs
}

func sortByPriority(txs []*tangle.Transaction) []*tangle.Transaction {
	sorted := make([]*tangle.Transaction, len(txs))
	copy(sorted, txs)
	sort.Slice(sorted, func(i, j int) bool {
		a := &queueItem{tx: sorted[i], weight: sorted[i].WeightMagnitude()}
		b := &queueItem{tx: sorted[j], weight: sorted[j].WeightMagnitude()}
		return a.before(b)
	})
	return sorted
}

func TestBroadcastQueueOrder(t *testing.T) {
	txs := queueTransactions(50)

	q := NewBroadcastQueue(100)
	for _, tx := range txs {
		q.Push(tx, "")
	}
	// duplicates are ignored
	q.Push(txs[0], "")
	q.Push(txs[1], "")

	if q.Len() != len(txs) {
		t.Fatalf("queue should hold %d transactions, not %d", len(txs), q.Len())
	}

	for i, expected := range sortByPriority(txs) {
		tx, _, ok := q.Pop()
		if !ok {
			t.Fatalf("queue should not be empty at %d", i)
		}
		if tx.Hash != expected.Hash {
			t.Fatalf("pop %d should return %s, not %s", i, expected.Hash, tx.Hash)
		}
	}

	if _, _, ok := q.Pop(); ok {
		t.Fatalf("queue should be empty")
	}
}

func TestBroadcastQueueOverflow(t *testing.T) {
	txs := queueTransactions(20)

	q := NewBroadcastQueue(5)
	for _, tx := range txs {
		q.Push(tx, "origin")
	}

	if q.Len() != 5 {
		t.Fatalf("queue should hold 5 transactions, not %d", q.Len())
	}

	for i, expected := range sortByPriority(txs)[:5] {
		tx, origin, _ := q.Pop()
		if tx.Hash != expected.Hash {
			t.Fatalf("pop %d should return %s, not %s", i, expected.Hash, tx.Hash)
		}
		if origin != "origin" {
			t.Fatalf("origin should be kept")
		}
	}

	select {
	case <-q.Notify():
	default:
		t.Fatalf("queue should have notified")
	}
}
