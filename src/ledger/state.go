// Package ledger holds address balances and the snapshot they start from.
package ledger

import "github.com/mosaicnetworks/tangle/src/tangle"

// State maps addresses to balances.
type State map[tangle.Hash]int64

// Clone returns an independent copy of the state.
func (s State) Clone() State {
	c := make(State, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Add adds value to the balance of address.
func (s State) Add(address tangle.Hash, value int64) {
	if value == 0 {
		return
	}
	s[address] += value
}

// ApplyBundle adds the value of every transaction of a bundle instance.
func (s State) ApplyBundle(instance []*tangle.Transaction) {
	for _, tx := range instance {
		s.Add(tx.Address, tx.Value)
	}
}

// Negative returns the first address with a negative balance.
func (s State) Negative() (tangle.Hash, bool) {
	for k, v := range s {
		if v < 0 {
			return k, true
		}
	}
	return tangle.NullHash, false
}

// Total returns the sum of all balances.
func (s State) Total() int64 {
	var total int64
	for _, v := range s {
		total += v
	}
	return total
}
