// Package tangled assembles a complete tangle node from a Config.
package tangled

import (
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/tangle/src/config"
	"github.com/mosaicnetworks/tangle/src/ledger"
	"github.com/mosaicnetworks/tangle/src/milestone"
	"github.com/mosaicnetworks/tangle/src/net"
	"github.com/mosaicnetworks/tangle/src/node"
	"github.com/mosaicnetworks/tangle/src/peers"
	"github.com/mosaicnetworks/tangle/src/service"
	"github.com/mosaicnetworks/tangle/src/tangle"
	"github.com/mosaicnetworks/tangle/src/tipselection"
)

// Tangled is a struct containing the key objects of a tangle node: the
// Config, the Store, the Cache, the milestone Tracker, the tip selection
// Engine, the Transport, the Neighbors, the Node, and the Service. Fields that
// are set before Init are kept, which lets tests inject a Transport.
type Tangled struct {
	Config       *config.Config
	Store        tangle.Store
	Cache        *tangle.Cache
	Snapshot     ledger.State
	Milestones   *milestone.Tracker
	TipSelection *tipselection.Engine
	Transport    net.Transport
	Neighbors    *peers.Neighbors
	Node         *node.Node
	Service      *service.Service

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	logger       *logrus.Entry
}

// NewTangled is a factory method to produce a Tangled instance.
func NewTangled(c *config.Config) *Tangled {
	return &Tangled{
		Config:     c,
		shutdownCh: make(chan struct{}),
		logger:     c.Logger(),
	}
}

// Init initialises the components in dependency order.
func (t *Tangled) Init() error {
	t.logger.Debug("validating configuration")

	if err := t.validateConfig(); err != nil {
		return err
	}

	if err := t.initStore(); err != nil {
		t.logger.WithError(err).Error("tangled.go:Init() initStore")
		return err
	}

	if err := t.initCache(); err != nil {
		t.logger.WithError(err).Error("tangled.go:Init() initCache")
		return err
	}

	startIndex, err := t.initSnapshot()
	if err != nil {
		t.logger.WithError(err).Error("tangled.go:Init() initSnapshot")
		return err
	}

	t.initMilestones(startIndex)
	t.initTipSelection()

	if err := t.initTransport(); err != nil {
		t.logger.WithError(err).Error("tangled.go:Init() initTransport")
		return err
	}

	persist, err := t.initNeighbors()
	if err != nil {
		t.logger.WithError(err).Error("tangled.go:Init() initNeighbors")
		return err
	}

	t.initNode(persist)
	t.initService()

	return nil
}

// Run starts the service, the milestone tracker, and the node. It blocks
// until Shutdown is called.
func (t *Tangled) Run() {
	if t.Service != nil {
		go t.Service.Serve()
	}

	go t.Milestones.Run(t.shutdownCh, t.Config.MilestoneInterval, t.Config.ArtificialLatency)

	t.Node.Run()
}

// Shutdown stops the node and the milestone tracker, and closes the store.
func (t *Tangled) Shutdown() {
	t.shutdownOnce.Do(func() {
		close(t.shutdownCh)

		t.Node.Shutdown()

		if err := t.Store.Close(); err != nil {
			t.logger.WithError(err).Error("Closing store")
		}
	})
}

func (t *Tangled) validateConfig() error {
	switch t.Config.DatabaseEngine {
	case config.BadgerEngine, config.LevelDBEngine:
	default:
		return fmt.Errorf("unknown database engine %q", t.Config.DatabaseEngine)
	}

	if t.Config.RatingThreshold < 0 || t.Config.RatingThreshold > 100 {
		return fmt.Errorf("rating threshold %d out of [0, 100]", t.Config.RatingThreshold)
	}

	if t.Config.Depth < 0 || t.Config.MaxDepth < 0 {
		return fmt.Errorf("negative depth")
	}

	t.logger.WithFields(logrus.Fields{
		"datadir":        t.Config.DataDir,
		"listen":         t.Config.BindAddr,
		"service-listen": t.Config.ServiceAddr,
		"store":          t.Config.Store,
		"db-engine":      t.Config.DatabaseEngine,
		"coordinator":    t.Config.Coordinator,
		"depth":          t.Config.Depth,
	}).Debug("Config")

	return nil
}

func (t *Tangled) initStore() error {
	if t.Store != nil {
		return nil
	}

	if !t.Config.Store {
		t.logger.Debug("Creating InmemStore")
		t.Store = tangle.NewInmemStore()
		return nil
	}

	dbPath := t.Config.DatabaseDir

	if err := os.MkdirAll(dbPath, 0700); err != nil {
		return err
	}

	logger := t.logger.WithField("path", dbPath)

	switch t.Config.DatabaseEngine {
	case config.LevelDBEngine:
		logger.Debug("Loading LevelDBStore")
		store, err := tangle.LoadOrCreateLevelDBStore(dbPath, logger)
		if err != nil {
			return err
		}
		t.Store = store
	default:
		logger.Debug("Loading BadgerStore")
		store, err := tangle.LoadOrCreateBadgerStore(dbPath, logger)
		if err != nil {
			return err
		}
		t.Store = store
	}

	return nil
}

func (t *Tangled) initCache() error {
	coordinator, err := t.Config.CoordinatorAddress()
	if err != nil {
		return err
	}

	t.Cache = tangle.NewCache(t.Store, coordinator)

	_, err = t.Cache.Build(t.logger)

	return err
}

// initSnapshot loads the ledger snapshot and returns the milestone index the
// tracker starts from.
func (t *Tangled) initSnapshot() (int, error) {
	snapshot, err := ledger.LoadSnapshot(t.Config.Snapshot)
	if err != nil {
		return 0, err
	}

	state, err := snapshot.State()
	if err != nil {
		return 0, err
	}

	t.Snapshot = state

	startIndex := t.Config.MilestoneStartIndex
	if snapshot.Index > startIndex {
		startIndex = snapshot.Index
	}

	t.logger.WithFields(logrus.Fields{
		"addresses":   len(state),
		"index":       snapshot.Index,
		"start_index": startIndex,
	}).Debug("Loaded snapshot")

	return startIndex, nil
}

func (t *Tangled) initMilestones(startIndex int) {
	coordinator, _ := t.Config.CoordinatorAddress()

	t.Milestones = milestone.NewTracker(t.Store,
		t.Cache,
		coordinator,
		startIndex,
		t.Config.Logger().WithField("prefix", "milestone"))
}

func (t *Tangled) initTipSelection() {
	t.TipSelection = tipselection.NewEngine(t.Store,
		t.Cache,
		t.Milestones,
		t.Snapshot,
		t.Config.TipSelectionConfig())
}

func (t *Tangled) initTransport() error {
	if t.Transport != nil {
		return nil
	}

	trans, err := net.NewUDPTransport(t.Config.BindAddr,
		t.Config.MaxPool,
		t.Config.Logger().WithField("prefix", "udp"))
	if err != nil {
		return err
	}

	t.Transport = trans

	return nil
}

// initNeighbors merges the configured neighbors with the ones persisted in
// the data directory.
func (t *Tangled) initNeighbors() (*peers.JSONNeighbors, error) {
	persist := peers.NewJSONNeighbors(t.Config.DataDir)

	stored, err := persist.URIs()
	if err != nil {
		return nil, err
	}

	uris := append(append([]string{}, t.Config.Neighbors...), stored...)

	list := peers.ParseNeighbors(uris, peers.DefaultResolver, t.logger)

	t.Neighbors = peers.NewNeighbors(nil)
	for _, nb := range list {
		t.Neighbors.Add(nb)
	}

	t.logger.WithField("neighbors", t.Neighbors.URIs()).Debug("Loaded neighbors")

	return persist, nil
}

func (t *Tangled) initNode(persist *peers.JSONNeighbors) {
	t.Node = node.NewNode(t.Config.NodeConfig(),
		t.Store,
		t.Cache,
		t.Milestones,
		t.TipSelection,
		t.Transport,
		t.Neighbors)

	t.Node.SetNeighborsStore(persist)
}

func (t *Tangled) initService() {
	if t.Config.NoService {
		return
	}

	t.Service = service.NewService(t.Config.ServiceAddr,
		t.Node,
		t.TipSelection,
		t.Config.Depth,
		t.Config.Logger().WithField("prefix", "service"))
}
