package tipselection

// bitset is a growable set of pointers.
type bitset []uint64

func (b *bitset) grow(size int) {
	words := (size + 63) / 64
	if words <= len(*b) {
		return
	}
	if words <= cap(*b) {
		*b = (*b)[:words]
		return
	}
	n := make(bitset, words, 2*words)
	copy(n, *b)
	*b = n
}

// testAndSet sets bit i and returns true if it was not set before.
func (b *bitset) testAndSet(i uint64) bool {
	w := int(i / 64)
	if w >= len(*b) {
		b.grow(int(i) + 1)
	}
	mask := uint64(1) << (i % 64)
	if (*b)[w]&mask != 0 {
		return false
	}
	(*b)[w] |= mask
	return true
}

func (b bitset) isSet(i uint64) bool {
	w := int(i / 64)
	if w >= len(b) {
		return false
	}
	return b[w]&(uint64(1)<<(i%64)) != 0
}

func (b bitset) clear() {
	for i := range b {
		b[i] = 0
	}
}

func (b *bitset) copyFrom(o bitset) {
	b.grow(len(o) * 64)
	copy(*b, o)
	for i := len(o); i < len(*b); i++ {
		(*b)[i] = 0
	}
}

// traversal is the scratch state of one SelectTip call. It is recycled
// through a sync.Pool and must not be shared between calls.
type traversal struct {
	visited bitset
	saved   bitset
}

func newTraversal() *traversal {
	return &traversal{}
}

// reset prepares the traversal for a tangle with size pointers.
func (t *traversal) reset(size int) {
	t.visited.grow(size)
	t.saved.grow(size)
	t.visited.clear()
	t.saved.clear()
}

func (t *traversal) visit(p uint64) bool {
	return t.visited.testAndSet(p)
}

func (t *traversal) isVisited(p uint64) bool {
	return t.visited.isSet(p)
}

// save snapshots the visited set.
func (t *traversal) save() {
	t.saved.copyFrom(t.visited)
}

// restore resets the visited set to the last snapshot.
func (t *traversal) restore() {
	t.visited.copyFrom(t.saved)
}

func (t *traversal) clear() {
	t.visited.clear()
}
