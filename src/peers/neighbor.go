package peers

import (
	"net"
	"strconv"
	"sync/atomic"
)

// Resolver returns the IP addresses of a host.
type Resolver func(host string) ([]string, error)

// DefaultResolver resolves hosts with the system resolver.
func DefaultResolver(host string) ([]string, error) {
	return net.LookupHost(host)
}

// Neighbor is a remote node.
type Neighbor struct {
	Host    string
	Port    int
	NetAddr string

	allTransactions     uint64
	newTransactions     uint64
	invalidTransactions uint64
	lastCheck           uint64
}

// NewNeighbor creates a neighbor reachable at ip:port. host is the name it was
// configured with, and may be the ip itself.
func NewNeighbor(host string, ip string, port int) *Neighbor {
	return &Neighbor{
		Host:    host,
		Port:    port,
		NetAddr: net.JoinHostPort(ip, strconv.Itoa(port)),
	}
}

// URI returns the udp URI of the neighbor.
func (n *Neighbor) URI() string {
	return "udp://" + net.JoinHostPort(n.Host, strconv.Itoa(n.Port))
}

// IncAllTransactions counts a transaction received from the neighbor.
func (n *Neighbor) IncAllTransactions() {
	atomic.AddUint64(&n.allTransactions, 1)
}

// IncNewTransactions counts a transaction that was new to this node.
func (n *Neighbor) IncNewTransactions() {
	atomic.AddUint64(&n.newTransactions, 1)
}

// IncInvalidTransactions counts a transaction that was rejected.
func (n *Neighbor) IncInvalidTransactions() {
	atomic.AddUint64(&n.invalidTransactions, 1)
}

// AllTransactions returns the number of transactions received.
func (n *Neighbor) AllTransactions() uint64 {
	return atomic.LoadUint64(&n.allTransactions)
}

// NewTransactions returns the number of new transactions received.
func (n *Neighbor) NewTransactions() uint64 {
	return atomic.LoadUint64(&n.newTransactions)
}

// InvalidTransactions returns the number of invalid transactions received.
func (n *Neighbor) InvalidTransactions() uint64 {
	return atomic.LoadUint64(&n.invalidTransactions)
}

// CheckStalled records the current transaction count and returns true if
// the neighbor sent transactions before, but none since the previous check.
func (n *Neighbor) CheckStalled() bool {
	all := n.AllTransactions()
	previous := atomic.SwapUint64(&n.lastCheck, all)
	return all > 0 && all == previous
}

// NeighborInfo is a read-only view of a neighbor.
type NeighborInfo struct {
	Address                     string `json:"address"`
	URI                         string `json:"uri"`
	NumberOfAllTransactions     uint64 `json:"numberOfAllTransactions"`
	NumberOfNewTransactions     uint64 `json:"numberOfNewTransactions"`
	NumberOfInvalidTransactions uint64 `json:"numberOfInvalidTransactions"`
}

// Info returns a snapshot of the neighbor's counters.
func (n *Neighbor) Info() NeighborInfo {
	return NeighborInfo{
		Address:                     n.NetAddr,
		URI:                         n.URI(),
		NumberOfAllTransactions:     n.AllTransactions(),
		NumberOfNewTransactions:     n.NewTransactions(),
		NumberOfInvalidTransactions: n.InvalidTransactions(),
	}
}
