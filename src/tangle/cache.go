package tangle

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Summary holds the fields of a transaction that traversals need.
type Summary struct {
	Hash          Hash
	Address       Hash
	Bundle        Hash
	Value         int64
	TrunkPointer  Pointer
	BranchPointer Pointer
	ArrivalTime   int64
	CurrentIndex  uint32
}

// IsTail returns true if the summarized transaction is a bundle tail.
func (s *Summary) IsTail() bool {
	return s.CurrentIndex == 0
}

// Cache memoizes transaction summaries, parsed bundles, and the arrival times
// of milestones. Entries are never evicted; bundles are dropped when one of
// their transactions changes or when they fail validation.
type Cache struct {
	store       Store
	coordinator Hash

	summaryLock sync.RWMutex
	summaries   map[Pointer]*Summary

	bundleLock sync.Mutex
	bundles    map[Hash]*Bundle

	milestoneLock sync.RWMutex
	milestones    map[int]int64
}

// NewCache creates an empty Cache. Tail transactions sent from the coordinator
// address are recorded as milestones.
func NewCache(store Store, coordinator Hash) *Cache {
	return &Cache{
		store:       store,
		coordinator: coordinator,
		summaries:   make(map[Pointer]*Summary),
		bundles:     make(map[Hash]*Bundle),
		milestones:  make(map[int]int64),
	}
}

// Build scans the store and summarizes every received transaction.
func (c *Cache) Build(logger *logrus.Entry) (int, error) {
	size := c.store.Size()
	count := 0

	for p := 1; p < size; p++ {
		tx, err := c.store.LoadTransaction(Pointer(p))
		if err != nil {
			return count, err
		}
		if tx.Prefilled {
			continue
		}
		c.Upsert(tx)
		count++
	}

	logger.WithFields(logrus.Fields{
		"transactions": count,
		"milestones":   c.MilestoneCount(),
	}).Debug("Built tangle cache")

	return count, nil
}

// Upsert records or refreshes the summary of a stored transaction.
func (c *Cache) Upsert(tx *Transaction) {
	s := &Summary{
		Hash:          tx.Hash,
		Address:       tx.Address,
		Bundle:        tx.Bundle,
		Value:         tx.Value,
		TrunkPointer:  tx.TrunkPointer,
		BranchPointer: tx.BranchPointer,
		ArrivalTime:   tx.EffectiveArrivalTime(),
		CurrentIndex:  tx.CurrentIndex,
	}

	c.summaryLock.Lock()
	c.summaries[tx.Pointer] = s
	c.summaryLock.Unlock()

	c.InvalidateBundle(tx.Bundle)

	if c.coordinator != NullHash && tx.Address == c.coordinator && tx.IsTail() {
		c.milestoneLock.Lock()
		c.milestones[tx.MilestoneIndex()] = s.ArrivalTime
		c.milestoneLock.Unlock()
	}
}

// Get returns the summary of the transaction at p. It returns false for the
// null pointer, and for transactions that were not received yet.
func (c *Cache) Get(p Pointer) (*Summary, bool) {
	c.summaryLock.RLock()
	defer c.summaryLock.RUnlock()

	s, ok := c.summaries[p]
	return s, ok
}

// Len returns the number of summaries.
func (c *Cache) Len() int {
	c.summaryLock.RLock()
	defer c.summaryLock.RUnlock()

	return len(c.summaries)
}

// BundleOf returns the parsed bundle, parsing it on first access.
func (c *Cache) BundleOf(hash Hash) (*Bundle, error) {
	c.bundleLock.Lock()
	defer c.bundleLock.Unlock()

	if b, ok := c.bundles[hash]; ok {
		return b, nil
	}

	b, err := NewBundle(c.store, hash)
	if err != nil {
		return nil, err
	}

	c.bundles[hash] = b

	return b, nil
}

// InvalidateBundle drops a parsed bundle so that it is parsed again on next
// access.
func (c *Cache) InvalidateBundle(hash Hash) {
	c.bundleLock.Lock()
	delete(c.bundles, hash)
	c.bundleLock.Unlock()
}

// MilestoneArrivalTime returns the arrival time of the milestone with the
// given index.
func (c *Cache) MilestoneArrivalTime(index int) (int64, bool) {
	c.milestoneLock.RLock()
	defer c.milestoneLock.RUnlock()

	t, ok := c.milestones[index]
	return t, ok
}

// OldestMilestoneArrivalTime returns the earliest arrival time among the
// milestones whose index is at least fromIndex.
func (c *Cache) OldestMilestoneArrivalTime(fromIndex int) (int64, bool) {
	c.milestoneLock.RLock()
	defer c.milestoneLock.RUnlock()

	var oldest int64
	found := false
	for index, t := range c.milestones {
		if index < fromIndex {
			continue
		}
		if !found || t < oldest {
			oldest = t
			found = true
		}
	}

	return oldest, found
}

// MilestoneCount returns the number of milestones seen.
func (c *Cache) MilestoneCount() int {
	c.milestoneLock.RLock()
	defer c.milestoneLock.RUnlock()

	return len(c.milestones)
}
