package node

import (
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/tangle/src/milestone"
	"github.com/mosaicnetworks/tangle/src/net"
	"github.com/mosaicnetworks/tangle/src/peers"
	"github.com/mosaicnetworks/tangle/src/tangle"
)

// TipSelector chooses a tip to send in reply to tip requests.
type TipSelector interface {
	SelectTip(reference *tangle.Hash, depth int) (tangle.Hash, error)
}

// Node defines a tangle gossip node
type Node struct {
	state

	conf   *Config
	logger *logrus.Entry

	store      tangle.Store
	cache      *tangle.Cache
	milestones milestone.Provider
	selector   TipSelector

	trans     net.Transport
	neighbors *peers.Neighbors
	persist   *peers.JSONNeighbors
	resolve   peers.Resolver

	queue *BroadcastQueue

	// owned by the receive duty
	replyCounter uint64
	rnd          *rand.Rand

	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	start time.Time
}

// NewNode is a factory method that returns a Node instance. selector may be
// nil, in which case tips sent in replies are picked uniformly.
func NewNode(conf *Config,
	store tangle.Store,
	cache *tangle.Cache,
	milestones milestone.Provider,
	selector TipSelector,
	trans net.Transport,
	neighbors *peers.Neighbors,
) *Node {

	node := Node{
		conf:         conf,
		logger:       conf.Logger.WithField("prefix", "node"),
		store:        store,
		cache:        cache,
		milestones:   milestones,
		selector:     selector,
		trans:        trans,
		neighbors:    neighbors,
		resolve:      peers.DefaultResolver,
		queue:        NewBroadcastQueue(conf.QueueSize),
		replyCounter: 1,
		rnd:          rand.New(rand.NewSource(time.Now().UnixNano())),
		shutdownCh:   make(chan struct{}),
	}

	return &node
}

// SetResolver replaces the resolver used by the DNS refresh duty and by
// AddNeighbor.
func (n *Node) SetResolver(resolve peers.Resolver) {
	n.resolve = resolve
}

// SetNeighborsStore makes AddNeighbor and RemoveNeighbor persist the list of
// neighbors.
func (n *Node) SetNeighborsStore(persist *peers.JSONNeighbors) {
	n.persist = persist
}

// RunAsync starts the duties and returns immediately.
func (n *Node) RunAsync() {
	n.start = time.Now()
	n.setState(Running)

	n.logger.WithField("neighbors", n.neighbors.Len()).Info("Starting node")

	n.goFunc(n.trans.Listen)
	n.goFunc(n.receive)
	n.goFunc(n.broadcast)
	n.goFunc(n.requestTips)
	n.goFunc(n.refreshNeighbors)
}

// Run starts the duties and blocks until the node is shut down.
func (n *Node) Run() {
	n.RunAsync()
	<-n.shutdownCh
}

// Shutdown stops the duties. It waits for them at most ShutdownGrace, then
// closes the transport.
func (n *Node) Shutdown() {
	n.shutdownOnce.Do(n.shutdown)
}

func (n *Node) shutdown() {
	n.logger.Info("Shutdown")

	n.setState(Shutdown)
	close(n.shutdownCh)

	// Closing the transport unblocks Listen
	if err := n.trans.Close(); err != nil {
		n.logger.WithError(err).Error("Closing transport")
	}

	timeout := make(chan struct{})
	timer := time.AfterFunc(n.conf.ShutdownGrace, func() { close(timeout) })
	defer timer.Stop()

	if !n.waitRoutines(timeout) {
		n.logger.WithField("grace", n.conf.ShutdownGrace).Warn("Duties did not stop in time")
	}
}

// Broadcast queues a transaction for every neighbor.
func (n *Node) Broadcast(tx *tangle.Transaction) {
	n.queue.Push(tx, "")
}

// SubmitTransaction decodes, validates, stores, and broadcasts a transaction
// created locally. It returns the transaction hash.
func (n *Node) SubmitTransaction(data []byte) (tangle.Hash, error) {
	tx, err := tangle.NewTransactionFromBytes(data, n.conf.MinWeightMagnitude)
	if err != nil {
		return tangle.NullHash, err
	}

	if tx.Timestamp <= n.conf.TimestampThreshold {
		return tangle.NullHash, errors.New("transaction timestamp below threshold")
	}

	if _, err := n.storeTransaction(tx, ""); err != nil {
		return tangle.NullHash, err
	}

	return tx.Hash, nil
}

// storeTransaction stores tx and, if it is new, records its arrival, caches
// it, and queues it for broadcast.
func (n *Node) storeTransaction(tx *tangle.Transaction, origin string) (bool, error) {
	p, isNew, err := n.store.StoreTransaction(tx)
	if err != nil || !isNew {
		return false, err
	}

	arrival := time.Now().Unix()
	if err := n.store.SetArrivalTime(p, arrival); err != nil {
		return true, err
	}
	tx.ArrivalTime = arrival

	n.cache.Upsert(tx)
	n.queue.Push(tx, origin)

	return true, nil
}

// AddNeighbor parses and adds a neighbor. It returns false if the neighbor
// already exists.
func (n *Node) AddNeighbor(uri string) (bool, error) {
	nb, err := peers.ParseNeighbor(uri, n.resolve)
	if err != nil {
		return false, err
	}

	if !n.neighbors.Add(nb) {
		return false, nil
	}

	n.logger.WithField("uri", uri).Info("Added neighbor")

	return true, n.persistNeighbors()
}

// RemoveNeighbor removes a neighbor. It returns false if there was no such
// neighbor.
func (n *Node) RemoveNeighbor(uri string) (bool, error) {
	nb, err := peers.ParseNeighbor(uri, n.resolve)
	if err != nil {
		return false, err
	}

	if !n.neighbors.Remove(nb.NetAddr) {
		return false, nil
	}

	n.logger.WithField("uri", uri).Info("Removed neighbor")

	return true, n.persistNeighbors()
}

func (n *Node) persistNeighbors() error {
	if n.persist == nil {
		return nil
	}
	return n.persist.SetURIs(n.neighbors.URIs())
}

// GetNeighbors returns the neighbors and their counters.
func (n *Node) GetNeighbors() []peers.NeighborInfo {
	return n.neighbors.Infos()
}

// GetStats returns stats
func (n *Node) GetStats() map[string]string {
	latest, latestIndex := n.milestones.LatestMilestone()
	solid, solidIndex := n.milestones.LatestSolidSubtangleMilestone()

	uptime := time.Duration(0)
	if !n.start.IsZero() {
		uptime = time.Since(n.start)
	}

	s := map[string]string{
		"state":                        n.getState().String(),
		"uptime":                       uptime.Truncate(time.Second).String(),
		"transactions":                 strconv.Itoa(n.store.Count()),
		"tips":                         strconv.Itoa(len(n.store.Tips())),
		"transactions_to_request":      strconv.FormatBool(n.hasTransactionToRequest()),
		"broadcast_queue":              strconv.Itoa(n.queue.Len()),
		"num_neighbors":                strconv.Itoa(n.neighbors.Len()),
		"milestones":                   strconv.Itoa(n.cache.MilestoneCount()),
		"latest_milestone":             latest.Hex(),
		"latest_milestone_index":       strconv.Itoa(latestIndex),
		"latest_solid_milestone":       solid.Hex(),
		"latest_solid_milestone_index": strconv.Itoa(solidIndex),
	}
	return s
}

func (n *Node) hasTransactionToRequest() bool {
	_, ok := n.store.TransactionToRequest()
	return ok
}

func (n *Node) logStats() {
	stats := n.GetStats()

	n.logger.WithFields(logrus.Fields{
		"transactions":           stats["transactions"],
		"tips":                   stats["tips"],
		"broadcast_queue":        stats["broadcast_queue"],
		"num_neighbors":          stats["num_neighbors"],
		"latest_milestone_index": stats["latest_milestone_index"],
		"latest_solid_index":     stats["latest_solid_milestone_index"],
	}).Debug("Stats")
}

// requestHash returns a missing transaction to ask for, or the null hash.
func (n *Node) requestHash() tangle.Hash {
	h, ok := n.store.TransactionToRequest()
	if !ok {
		return tangle.NullHash
	}
	return h
}

func (n *Node) send(nb *peers.Neighbor, tx *tangle.Transaction, requested tangle.Hash) {
	packet := net.NewPacket(tx.Bytes(), requested)
	if err := n.trans.SendTo(nb.NetAddr, packet); err != nil {
		n.logger.WithError(err).WithField("neighbor", nb.NetAddr).Debug("Sending packet")
	}
}
