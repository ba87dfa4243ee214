package tangle

import (
	"encoding/binary"
	"sync"

	"github.com/mosaicnetworks/tangle/src/crypto"
)

// TestTangle builds small tangles for tests. Every inserted transaction is
// stored, given a strictly increasing arrival time, and cached.
type TestTangle struct {
	sync.Mutex

	Store       *InmemStore
	Cache       *Cache
	Coordinator Hash

	clock   int64
	counter uint64
}

// NewTestTangle creates an empty TestTangle whose milestones are issued from
// the coordinator address.
func NewTestTangle(coordinator Hash) *TestTangle {
	store := NewInmemStore()
	return &TestTangle{
		Store:       store,
		Cache:       NewCache(store, coordinator),
		Coordinator: coordinator,
		clock:       1000000,
	}
}

// TestHash derives a deterministic hash from a label.
func TestHash(label string) Hash {
	var h Hash
	copy(h[:], crypto.SHA256([]byte(label)))
	return h
}

func (tt *TestTangle) next() (int64, Hash) {
	tt.Lock()
	defer tt.Unlock()

	tt.clock++
	tt.counter++

	var b [8]byte
	binary.BigEndian.PutUint64(b[:], tt.counter)

	var bundle Hash
	copy(bundle[:], crypto.SHA256(b[:]))

	return tt.clock, bundle
}

// Insert stores tx with the next arrival time and caches it.
func (tt *TestTangle) Insert(tx *Transaction) *Transaction {
	arrival, _ := tt.next()
	return tt.InsertAt(tx, arrival)
}

// InsertAt stores tx with the given arrival time and caches it.
func (tt *TestTangle) InsertAt(tx *Transaction, arrival int64) *Transaction {
	p, isNew, err := tt.Store.StoreTransaction(tx)
	if err != nil {
		panic(err)
	}
	if isNew {
		tt.Store.SetArrivalTime(p, arrival)
		tx.ArrivalTime = arrival
		tt.Cache.Upsert(tx)
	}
	return tx
}

// Add inserts a zero-value single-transaction bundle.
func (tt *TestTangle) Add(trunk, branch Hash) *Transaction {
	return tt.AddBundle(trunk, branch, []Hash{NullHash}, []int64{0})[0]
}

// AddBundle inserts a bundle with one transaction per address, tail first in
// the result. The last transaction approves trunk and branch, every other
// transaction approves the next one through its trunk.
func (tt *TestTangle) AddBundle(trunk, branch Hash, addresses []Hash, values []int64) []*Transaction {
	return tt.insertAll(tt.MakeBundle(trunk, branch, addresses, values))
}

// MakeBundle builds a bundle like AddBundle without inserting it.
func (tt *TestTangle) MakeBundle(trunk, branch Hash, addresses []Hash, values []int64) []*Transaction {
	timestamp, bundle := tt.next()

	last := uint32(len(addresses) - 1)
	txs := make([]*Transaction, len(addresses))

	nextTrunk := trunk
	for i := int(last); i >= 0; i-- {
		txs[i] = NewTransaction(addresses[i],
			values[i],
			timestamp,
			uint32(i),
			last,
			bundle,
			nextTrunk,
			branch)
		nextTrunk = txs[i].Hash
	}

	return txs
}

// AddMilestone inserts a coordinator milestone with the given index.
func (tt *TestTangle) AddMilestone(index int, trunk, branch Hash) *Transaction {
	timestamp, bundle := tt.next()

	tx := &Transaction{
		Address:   tt.Coordinator,
		Timestamp: timestamp,
		Bundle:    bundle,
		Trunk:     trunk,
		Branch:    branch,
	}
	tx.SetMilestoneIndex(index)
	tx.Seal()

	return tt.Insert(tx)
}

func (tt *TestTangle) insertAll(txs []*Transaction) []*Transaction {
	for i := len(txs) - 1; i >= 0; i-- {
		tt.Insert(txs[i])
	}
	return txs
}
