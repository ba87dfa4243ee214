package tangle

// Bundle groups the valid instances of a bundle hash. An instance is the
// ordered list of transactions reached from one tail by following trunk links.
// The same bundle may have several instances when it was reattached.
type Bundle struct {
	Hash      Hash
	instances map[Pointer][]*Transaction
}

// NewBundle reconstructs every valid instance of the bundle from the store.
// Invalid instances are silently left out.
func NewBundle(store Store, hash Hash) (*Bundle, error) {
	b := &Bundle{
		Hash:      hash,
		instances: make(map[Pointer][]*Transaction),
	}

	for _, p := range store.BundleTransactions(hash) {
		tail, err := store.LoadTransaction(p)
		if err != nil {
			return nil, err
		}

		if !tail.IsTail() || tail.Prefilled {
			continue
		}

		if instance, ok := reconstruct(store, tail); ok {
			b.instances[p] = instance
		}
	}

	return b, nil
}

// reconstruct follows trunk links from the tail and checks that the indexes
// increase by one up to the last index, that every member belongs to the
// bundle, and that the values sum to zero.
func reconstruct(store Store, tail *Transaction) ([]*Transaction, bool) {
	instance := []*Transaction{tail}
	sum := tail.Value
	current := tail

	for current.CurrentIndex < current.LastIndex {
		next, err := store.LoadTransaction(current.TrunkPointer)
		if err != nil || next.Prefilled {
			return nil, false
		}

		if next.Bundle != tail.Bundle ||
			next.CurrentIndex != current.CurrentIndex+1 ||
			next.LastIndex != tail.LastIndex {
			return nil, false
		}

		instance = append(instance, next)
		sum += next.Value
		current = next
	}

	if current.CurrentIndex != tail.LastIndex || sum != 0 {
		return nil, false
	}

	return instance, true
}

// Instance returns the valid instance whose tail is at p.
func (b *Bundle) Instance(tail Pointer) ([]*Transaction, bool) {
	instance, ok := b.instances[tail]
	return instance, ok
}

// Len returns the number of valid instances.
func (b *Bundle) Len() int {
	return len(b.instances)
}
