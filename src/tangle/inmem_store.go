package tangle

import (
	"sync"

	cm "github.com/mosaicnetworks/tangle/src/common"
)

// InmemStore implements the Store interface with in-memory indexes.
type InmemStore struct {
	sync.RWMutex

	transactions []*Transaction
	pointers     map[Hash]Pointer
	approvers    map[Pointer][]Pointer
	addresses    map[Hash][]Pointer
	bundles      map[Hash][]Pointer
	prefilled    map[Pointer]struct{}
	tips         map[Pointer]struct{}
	count        int
}

// NewInmemStore creates a new InmemStore holding only the null transaction.
func NewInmemStore() *InmemStore {
	genesis := &Transaction{
		Hash:    NullHash,
		Pointer: NullPointer,
	}

	return &InmemStore{
		transactions: []*Transaction{genesis},
		pointers:     map[Hash]Pointer{NullHash: NullPointer},
		approvers:    make(map[Pointer][]Pointer),
		addresses:    make(map[Hash][]Pointer),
		bundles:      make(map[Hash][]Pointer),
		prefilled:    make(map[Pointer]struct{}),
		tips:         make(map[Pointer]struct{}),
	}
}

// StoreTransaction implements the Store interface.
func (s *InmemStore) StoreTransaction(tx *Transaction) (Pointer, bool, error) {
	s.Lock()
	defer s.Unlock()

	if tx.Hash == NullHash {
		return NullPointer, false, nil
	}

	p, ok := s.pointers[tx.Hash]
	if ok {
		if _, pre := s.prefilled[p]; !pre {
			s.fillLocked(tx, s.transactions[p])
			return p, false, nil
		}
		delete(s.prefilled, p)
	} else {
		p = s.allocateLocked(tx.Hash)
	}

	tx.Pointer = p
	tx.TrunkPointer = s.pointerOrAllocateLocked(tx.Trunk)
	tx.BranchPointer = s.pointerOrAllocateLocked(tx.Branch)
	tx.Prefilled = false

	stored := tx.clone()
	s.transactions[p] = stored
	s.count++

	s.approvers[tx.TrunkPointer] = append(s.approvers[tx.TrunkPointer], p)
	if tx.BranchPointer != tx.TrunkPointer {
		s.approvers[tx.BranchPointer] = append(s.approvers[tx.BranchPointer], p)
	}

	s.addresses[tx.Address] = append(s.addresses[tx.Address], p)
	s.bundles[tx.Bundle] = append(s.bundles[tx.Bundle], p)

	delete(s.tips, tx.TrunkPointer)
	delete(s.tips, tx.BranchPointer)
	if len(s.approvers[p]) == 0 {
		s.tips[p] = struct{}{}
	}

	return p, true, nil
}

// fillLocked copies the local metadata of a known transaction into tx.
func (s *InmemStore) fillLocked(tx *Transaction, stored *Transaction) {
	tx.Pointer = stored.Pointer
	tx.TrunkPointer = stored.TrunkPointer
	tx.BranchPointer = stored.BranchPointer
	tx.ArrivalTime = stored.ArrivalTime
	tx.Prefilled = false
}

func (s *InmemStore) allocateLocked(h Hash) Pointer {
	p := Pointer(len(s.transactions))
	s.transactions = append(s.transactions, &Transaction{
		Hash:      h,
		Pointer:   p,
		Prefilled: true,
	})
	s.pointers[h] = p
	return p
}

func (s *InmemStore) pointerOrAllocateLocked(h Hash) Pointer {
	p, ok := s.pointers[h]
	if ok {
		return p
	}
	p = s.allocateLocked(h)
	s.prefilled[p] = struct{}{}
	return p
}

// LoadTransaction implements the Store interface.
func (s *InmemStore) LoadTransaction(p Pointer) (*Transaction, error) {
	s.RLock()
	defer s.RUnlock()

	if int(p) >= len(s.transactions) {
		return nil, cm.NewStoreErr("Transaction", cm.KeyNotFound, p.String())
	}

	return s.transactions[p].clone(), nil
}

// TransactionPointer implements the Store interface.
func (s *InmemStore) TransactionPointer(h Hash) (Pointer, bool) {
	s.RLock()
	defer s.RUnlock()

	p, ok := s.pointers[h]
	return p, ok
}

// SetArrivalTime implements the Store interface.
func (s *InmemStore) SetArrivalTime(p Pointer, arrival int64) error {
	s.Lock()
	defer s.Unlock()

	if int(p) >= len(s.transactions) {
		return cm.NewStoreErr("Transaction", cm.KeyNotFound, p.String())
	}

	tx := s.transactions[p]
	if tx.Prefilled {
		return cm.NewStoreErr("Transaction", cm.Prefilled, p.String())
	}

	tx.ArrivalTime = arrival

	return nil
}

// Approvers implements the Store interface.
func (s *InmemStore) Approvers(p Pointer) []Pointer {
	s.RLock()
	defer s.RUnlock()

	return copyPointers(s.approvers[p])
}

// AddressTransactions implements the Store interface.
func (s *InmemStore) AddressTransactions(address Hash) []Pointer {
	s.RLock()
	defer s.RUnlock()

	return copyPointers(s.addresses[address])
}

// BundleTransactions implements the Store interface.
func (s *InmemStore) BundleTransactions(bundle Hash) []Pointer {
	s.RLock()
	defer s.RUnlock()

	return copyPointers(s.bundles[bundle])
}

// Tips implements the Store interface.
func (s *InmemStore) Tips() []Hash {
	s.RLock()
	defer s.RUnlock()

	res := make([]Hash, 0, len(s.tips))
	for p := range s.tips {
		res = append(res, s.transactions[p].Hash)
	}
	return res
}

// TransactionToRequest implements the Store interface.
func (s *InmemStore) TransactionToRequest() (Hash, bool) {
	s.RLock()
	defer s.RUnlock()

	for p := range s.prefilled {
		return s.transactions[p].Hash, true
	}
	return NullHash, false
}

// Size implements the Store interface.
func (s *InmemStore) Size() int {
	s.RLock()
	defer s.RUnlock()

	return len(s.transactions)
}

// Count implements the Store interface.
func (s *InmemStore) Count() int {
	s.RLock()
	defer s.RUnlock()

	return s.count
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}

// StorePath implements the Store interface.
func (s *InmemStore) StorePath() string {
	return ""
}

func copyPointers(src []Pointer) []Pointer {
	if len(src) == 0 {
		return nil
	}
	res := make([]Pointer, len(src))
	copy(res, src)
	return res
}
