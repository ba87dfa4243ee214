package peers

import "sync"

// Neighbors is a concurrent-safe collection of neighbors indexed by network
// address. The list is replaced on every change, so snapshots can be iterated
// without holding a lock.
type Neighbors struct {
	sync.RWMutex
	list   []*Neighbor
	byAddr map[string]*Neighbor
}

// NewNeighbors creates a collection from a list. Duplicate addresses are
// ignored.
func NewNeighbors(list []*Neighbor) *Neighbors {
	n := &Neighbors{
		list:   []*Neighbor{},
		byAddr: make(map[string]*Neighbor),
	}
	for _, nb := range list {
		n.Add(nb)
	}
	return n
}

// Add inserts a neighbor. It returns false if a neighbor with the same address
// exists.
func (n *Neighbors) Add(nb *Neighbor) bool {
	_, added := n.GetOrAdd(nb)
	return added
}

// GetOrAdd returns the neighbor with the address of nb, inserting nb if there
// is none. The flag is true if nb was inserted.
func (n *Neighbors) GetOrAdd(nb *Neighbor) (*Neighbor, bool) {
	n.Lock()
	defer n.Unlock()

	if existing, ok := n.byAddr[nb.NetAddr]; ok {
		return existing, false
	}

	list := make([]*Neighbor, len(n.list), len(n.list)+1)
	copy(list, n.list)
	n.list = append(list, nb)
	n.byAddr[nb.NetAddr] = nb

	return nb, true
}

// Remove deletes the neighbor with the given address.
func (n *Neighbors) Remove(netAddr string) bool {
	n.Lock()
	defer n.Unlock()

	if _, ok := n.byAddr[netAddr]; !ok {
		return false
	}

	list := make([]*Neighbor, 0, len(n.list))
	for _, nb := range n.list {
		if nb.NetAddr != netAddr {
			list = append(list, nb)
		}
	}
	n.list = list
	delete(n.byAddr, netAddr)

	return true
}

// Replace swaps old for nb, keeping its position. It fails if old is not in
// the collection, or if another neighbor already has the address of nb.
func (n *Neighbors) Replace(old *Neighbor, nb *Neighbor) bool {
	n.Lock()
	defer n.Unlock()

	if n.byAddr[old.NetAddr] != old {
		return false
	}
	if other, ok := n.byAddr[nb.NetAddr]; ok && other != old {
		return false
	}

	list := make([]*Neighbor, len(n.list))
	for i, e := range n.list {
		if e == old {
			list[i] = nb
		} else {
			list[i] = e
		}
	}
	n.list = list
	delete(n.byAddr, old.NetAddr)
	n.byAddr[nb.NetAddr] = nb

	return true
}

// ByAddr returns the neighbor with the given address, or nil.
func (n *Neighbors) ByAddr(netAddr string) *Neighbor {
	n.RLock()
	defer n.RUnlock()

	return n.byAddr[netAddr]
}

// Snapshot returns the current list. It must not be modified.
func (n *Neighbors) Snapshot() []*Neighbor {
	n.RLock()
	defer n.RUnlock()

	return n.list
}

// Len returns the number of neighbors.
func (n *Neighbors) Len() int {
	n.RLock()
	defer n.RUnlock()

	return len(n.list)
}

// Infos returns a view of every neighbor.
func (n *Neighbors) Infos() []NeighborInfo {
	list := n.Snapshot()
	res := make([]NeighborInfo, len(list))
	for i, nb := range list {
		res[i] = nb.Info()
	}
	return res
}

// URIs returns the URIs of every neighbor.
func (n *Neighbors) URIs() []string {
	list := n.Snapshot()
	res := make([]string, len(list))
	for i, nb := range list {
		res[i] = nb.URI()
	}
	return res
}
