package tangle

// Store provides an interface for persistent and non-persistent stores of
// transactions. Implementations must be safe for concurrent use.
type Store interface {
	// StoreTransaction records tx and fills in its pointers. The returned flag
	// is false if the transaction was already known, in which case nothing
	// changes. Storing a transaction whose slot is prefilled fills the slot.
	StoreTransaction(tx *Transaction) (Pointer, bool, error)
	// LoadTransaction returns a copy of the transaction at p. Prefilled
	// slots come back with Prefilled set.
	LoadTransaction(p Pointer) (*Transaction, error)
	TransactionPointer(h Hash) (Pointer, bool)
	SetArrivalTime(p Pointer, arrival int64) error
	Approvers(p Pointer) []Pointer
	AddressTransactions(address Hash) []Pointer
	BundleTransactions(bundle Hash) []Pointer
	Tips() []Hash
	// TransactionToRequest returns a hash that is referenced but missing.
	TransactionToRequest() (Hash, bool)
	// Size is the number of allocated pointers, including pointer 0 and
	// prefilled slots.
	Size() int
	// Count is the number of received transactions.
	Count() int
	Close() error
	StorePath() string
}
