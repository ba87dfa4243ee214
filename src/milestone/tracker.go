// Package milestone follows the coordinator's milestones and determines the
// latest one whose whole past cone has been received.
package milestone

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/tangle/src/tangle"
)

// Provider exposes the latest milestone and the latest solid milestone.
type Provider interface {
	LatestMilestone() (tangle.Hash, int)
	LatestSolidSubtangleMilestone() (tangle.Hash, int)
}

type milestone struct {
	hash    tangle.Hash
	pointer tangle.Pointer
	index   int
}

// Tracker implements Provider by scanning the transactions sent from the
// coordinator address.
type Tracker struct {
	sync.RWMutex

	store       tangle.Store
	cache       *tangle.Cache
	coordinator tangle.Hash
	startIndex  int
	logger      *logrus.Entry

	latest           tangle.Hash
	latestIndex      int
	latestSolid      tangle.Hash
	latestSolidIndex int

	solidLock sync.Mutex
	solid     map[tangle.Pointer]struct{}

	rnd *rand.Rand
}

// NewTracker creates a Tracker. Milestones with an index at or below
// startIndex are ignored.
func NewTracker(store tangle.Store,
	cache *tangle.Cache,
	coordinator tangle.Hash,
	startIndex int,
	logger *logrus.Entry) *Tracker {

	return &Tracker{
		store:            store,
		cache:            cache,
		coordinator:      coordinator,
		startIndex:       startIndex,
		logger:           logger,
		latestIndex:      startIndex,
		latestSolidIndex: startIndex,
		solid:            make(map[tangle.Pointer]struct{}),
		rnd:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// LatestMilestone implements Provider.
func (t *Tracker) LatestMilestone() (tangle.Hash, int) {
	t.RLock()
	defer t.RUnlock()
	return t.latest, t.latestIndex
}

// LatestSolidSubtangleMilestone implements Provider.
func (t *Tracker) LatestSolidSubtangleMilestone() (tangle.Hash, int) {
	t.RLock()
	defer t.RUnlock()
	return t.latestSolid, t.latestSolidIndex
}

// milestones returns the valid milestones above minIndex, highest first.
func (t *Tracker) milestones(minIndex int) ([]milestone, error) {
	res := []milestone{}

	if t.coordinator == tangle.NullHash {
		return res, nil
	}

	for _, p := range t.store.AddressTransactions(t.coordinator) {
		tx, err := t.store.LoadTransaction(p)
		if err != nil {
			return nil, err
		}

		if !tx.IsTail() || tx.Prefilled {
			continue
		}

		index := tx.MilestoneIndex()
		if index <= minIndex {
			continue
		}

		bundle, err := t.cache.BundleOf(tx.Bundle)
		if err != nil {
			return nil, err
		}
		if _, ok := bundle.Instance(p); !ok {
			continue
		}

		res = append(res, milestone{hash: tx.Hash, pointer: p, index: index})
	}

	sort.Slice(res, func(i, j int) bool {
		return res[i].index > res[j].index
	})

	return res, nil
}

// UpdateLatestMilestone picks the highest valid milestone index seen so far.
func (t *Tracker) UpdateLatestMilestone() error {
	_, current := t.LatestMilestone()

	ms, err := t.milestones(current)
	if err != nil {
		return err
	}
	if len(ms) == 0 {
		return nil
	}

	t.Lock()
	if ms[0].index > t.latestIndex {
		t.latest = ms[0].hash
		t.latestIndex = ms[0].index
	}
	t.Unlock()

	return nil
}

// UpdateLatestSolidSubtangleMilestone picks the highest milestone, not above
// the latest one, whose past cone contains no missing transaction.
func (t *Tracker) UpdateLatestSolidSubtangleMilestone() error {
	_, latestIndex := t.LatestMilestone()
	_, solidIndex := t.LatestSolidSubtangleMilestone()

	ms, err := t.milestones(solidIndex)
	if err != nil {
		return err
	}

	for _, m := range ms {
		if m.index > latestIndex {
			continue
		}

		solid, err := t.isSolid(m.pointer)
		if err != nil {
			return err
		}
		if !solid {
			continue
		}

		t.Lock()
		if m.index > t.latestSolidIndex {
			t.latestSolid = m.hash
			t.latestSolidIndex = m.index
		}
		t.Unlock()

		return nil
	}

	return nil
}

// isSolid walks the past cone of p. Cones already known to be solid are not
// walked again.
func (t *Tracker) isSolid(p tangle.Pointer) (bool, error) {
	visited := make(map[tangle.Pointer]struct{})
	queue := []tangle.Pointer{p}

	t.solidLock.Lock()
	defer t.solidLock.Unlock()

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		if current == tangle.NullPointer {
			continue
		}
		if _, ok := visited[current]; ok {
			continue
		}
		if _, ok := t.solid[current]; ok {
			continue
		}
		visited[current] = struct{}{}

		tx, err := t.store.LoadTransaction(current)
		if err != nil {
			return false, err
		}
		if tx.Prefilled {
			return false, nil
		}

		queue = append(queue, tx.TrunkPointer, tx.BranchPointer)
	}

	for k := range visited {
		t.solid[k] = struct{}{}
	}

	return true, nil
}

// Run updates the milestones until shutdownCh is closed. Once the node is
// synchronized, every pause is lengthened by a random delay below
// artificialLatency.
func (t *Tracker) Run(shutdownCh <-chan struct{}, interval time.Duration, artificialLatency time.Duration) {
	for {
		prevLatest, prevLatestIndex := t.LatestMilestone()
		_, prevSolidIndex := t.LatestSolidSubtangleMilestone()

		if err := t.UpdateLatestMilestone(); err != nil {
			t.logger.WithError(err).Error("Updating latest milestone")
		}
		if err := t.UpdateLatestSolidSubtangleMilestone(); err != nil {
			t.logger.WithError(err).Error("Updating latest solid milestone")
		}

		latest, latestIndex := t.LatestMilestone()
		solid, solidIndex := t.LatestSolidSubtangleMilestone()

		if latest != prevLatest || latestIndex != prevLatestIndex {
			t.logger.WithFields(logrus.Fields{
				"index": latestIndex,
				"hash":  latest.Hex(),
			}).Info("Latest milestone changed")
		}
		if solidIndex != prevSolidIndex {
			t.logger.WithFields(logrus.Fields{
				"index": solidIndex,
				"hash":  solid.Hex(),
			}).Info("Latest solid subtangle milestone changed")
		}

		pause := interval
		if artificialLatency > 0 && solidIndex > t.startIndex && solidIndex == latestIndex {
			pause += time.Duration(t.rnd.Int63n(int64(artificialLatency)))
		}

		select {
		case <-shutdownCh:
			return
		case <-time.After(pause):
		}
	}
}
