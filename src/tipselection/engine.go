package tipselection

import (
	"math/rand"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/tangle/src/ledger"
	"github.com/mosaicnetworks/tangle/src/tangle"
)

// Checkpoints provides the milestone that anchors every walk.
type Checkpoints interface {
	LatestSolidSubtangleMilestone() (tangle.Hash, int)
}

// Engine selects tips for new transactions to approve. SelectTip may be called
// concurrently.
type Engine struct {
	store       tangle.Store
	cache       *tangle.Cache
	checkpoints Checkpoints
	snapshot    ledger.State
	conf        *Config
	logger      *logrus.Entry

	pool sync.Pool

	randLock sync.Mutex
	rand     *rand.Rand

	now func() time.Time

	stats stats
}

// NewEngine creates an Engine. snapshot holds the balances that precede the
// tangle; it is never modified.
func NewEngine(store tangle.Store,
	cache *tangle.Cache,
	checkpoints Checkpoints,
	snapshot ledger.State,
	conf *Config) *Engine {

	return &Engine{
		store:       store,
		cache:       cache,
		checkpoints: checkpoints,
		snapshot:    snapshot,
		conf:        conf,
		logger:      conf.Logger(),
		pool: sync.Pool{
			New: func() interface{} { return newTraversal() },
		},
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
		now:  time.Now,
	}
}

// SetRand replaces the source of the weighted draw.
func (e *Engine) SetRand(r *rand.Rand) {
	e.randLock.Lock()
	e.rand = r
	e.randLock.Unlock()
}

type candidate struct {
	hash   tangle.Hash
	rating int
}

// SelectTip returns a tail for a new transaction to approve.
//
// Without a reference, the tip is chosen among the tails that approve the
// latest solid milestone, and whose past cone is consistent with the ledger.
// With a reference, for example the tip already chosen as trunk, the tip is
// chosen so that the union of both past cones stays consistent, and depth is
// the number of tails to step back from the milestone before searching.
func (e *Engine) SelectTip(reference *tangle.Hash, depth int) (tangle.Hash, error) {
	start := time.Now()
	defer e.stats.record(start)

	extension := reference != nil

	if depth < 0 {
		depth = 0
	}
	if depth > e.conf.MaxDepth {
		depth = e.conf.MaxDepth
	}

	checkpoint, checkpointIndex := e.checkpoints.LatestSolidSubtangleMilestone()

	checkpointPointer, ok := e.store.TransactionPointer(checkpoint)
	if !ok {
		return tangle.NullHash, newError(UnknownAncestor, checkpoint.Hex())
	}

	entry, entryPointer := checkpoint, checkpointPointer
	if extension {
		entry = *reference
		if entryPointer, ok = e.store.TransactionPointer(entry); !ok {
			return tangle.NullHash, newError(UnknownAncestor, entry.Hex())
		}
	}

	critical := e.criticalArrivalTime(checkpointIndex - depth)

	t := e.pool.Get().(*traversal)
	defer e.pool.Put(t)
	t.reset(e.store.Size())

	state := e.snapshot.Clone()

	confirmed, err := e.confirm(t, entryPointer, critical, state)
	if err != nil {
		return tangle.NullHash, err
	}
	if !extension {
		e.stats.setConfirmed(confirmed)
	}

	t.save()
	t.clear()

	from := checkpointPointer
	if extension {
		from = e.stepBack(checkpointPointer, depth)
	}

	tails := e.frontier(t, from)

	if extension {
		t.restore()
		kept := tails[:0]
		for _, p := range tails {
			if !t.isVisited(uint64(p)) {
				kept = append(kept, p)
			}
		}
		tails = kept
	}

	candidates, best := e.rate(t, tails, critical, state)

	if len(candidates) == 0 {
		if extension {
			return tangle.NullHash, newError(NoCandidate, entry.Hex())
		}
		e.logger.WithField("checkpoint", checkpoint.Hex()).Debug("No tip could be rated, falling back to the checkpoint")
		return checkpoint, nil
	}

	filtered := filterCandidates(candidates, best, e.conf.RatingThreshold)

	return weightedChoice(filtered, e.int63n), nil
}

// TransactionsToApprove selects a trunk and a branch whose past cones are
// consistent with each other.
func (e *Engine) TransactionsToApprove(depth int) (tangle.Hash, tangle.Hash, error) {
	trunk, err := e.SelectTip(nil, depth)
	if err != nil {
		return tangle.NullHash, tangle.NullHash, err
	}

	branch, err := e.SelectTip(&trunk, depth)
	if err != nil {
		return tangle.NullHash, tangle.NullHash, err
	}

	return trunk, branch, nil
}

// criticalArrivalTime is the arrival time of the oldest milestone in the
// window of interest. Transactions that arrived earlier are not walked.
func (e *Engine) criticalArrivalTime(oldestIndex int) int64 {
	if t, ok := e.cache.OldestMilestoneArrivalTime(oldestIndex); ok {
		return t
	}
	return e.now().Add(-e.conf.CriticalFallback).Unix()
}

// confirm walks the past cone of entry, marks it visited, and applies the
// value of every bundle it contains to state. Ancestors that arrived before
// critical are marked but not expanded.
func (e *Engine) confirm(t *traversal, entry tangle.Pointer, critical int64, state ledger.State) (int, error) {
	queue := []tangle.Pointer{entry}
	count := 0

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if !t.visit(uint64(p)) || p == tangle.NullPointer {
			continue
		}
		count++

		s, ok := e.cache.Get(p)
		if !ok {
			return count, newError(UnknownAncestor, e.hashOf(p))
		}

		if s.IsTail() {
			bundle, err := e.cache.BundleOf(s.Bundle)
			if err != nil {
				return count, err
			}
			instance, ok := bundle.Instance(p)
			if !ok {
				e.cache.InvalidateBundle(s.Bundle)
				return count, newError(InvalidBundle, s.Hash.Hex())
			}
			state.ApplyBundle(instance)
		}

		if s.ArrivalTime >= critical {
			queue = append(queue, s.TrunkPointer, s.BranchPointer)
		}
	}

	return count, nil
}

// stepBack moves from p through trunk links to the depth-th previous tail. It
// stops early before the null transaction or a transaction that is not cached.
func (e *Engine) stepBack(p tangle.Pointer, depth int) tangle.Pointer {
	for ; depth > 0; depth-- {
		s, ok := e.cache.Get(p)
		if !ok {
			return p
		}

		next := s.TrunkPointer
		for next != tangle.NullPointer {
			ns, ok := e.cache.Get(next)
			if !ok {
				return p
			}
			if ns.IsTail() {
				break
			}
			next = ns.TrunkPointer
		}

		if next == tangle.NullPointer {
			return p
		}
		p = next
	}
	return p
}

// frontier walks forward from p through approvers and collects the tails it
// meets. Tails without approvers come last.
func (e *Engine) frontier(t *traversal, from tangle.Pointer) []tangle.Pointer {
	queue := []tangle.Pointer{from}
	tails := []tangle.Pointer{}
	leaves := []tangle.Pointer{}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if !t.visit(uint64(p)) {
			continue
		}

		approvers := e.store.Approvers(p)

		s, ok := e.cache.Get(p)
		if ok && s.IsTail() {
			if len(approvers) == 0 {
				leaves = append(leaves, p)
			} else {
				tails = append(tails, p)
			}
		}

		queue = append(queue, approvers...)
	}

	return append(tails, leaves...)
}

// rate evaluates the candidate tails in reverse order. A tail is rated by the
// number of transactions it adds to the confirmed cone, provided that every
// bundle it adds is complete and recent, and that the resulting ledger has no
// negative balance.
func (e *Engine) rate(t *traversal, tails []tangle.Pointer, critical int64, state ledger.State) ([]candidate, int) {
	candidates := []candidate{}
	best := 0

	for i := len(tails) - 1; i >= 0; i-- {
		tail := tails[i]

		t.restore()

		extras, ok := e.extraTransactions(t, tail)
		if !ok || len(extras) == 0 {
			continue
		}

		if !e.bundlesComplete(extras, critical) {
			continue
		}

		s := state.Clone()
		for _, p := range extras {
			summary, _ := e.cache.Get(p)
			s.Add(summary.Address, summary.Value)
		}
		if _, negative := s.Negative(); negative {
			continue
		}

		summary, _ := e.cache.Get(tail)
		rating := len(extras)
		if rating > best {
			best = rating
		}

		candidates = append(candidates, candidate{hash: summary.Hash, rating: rating})
	}

	return candidates, best
}

// extraTransactions walks back from tail and returns the transactions that
// are not in the confirmed cone. It fails if it reaches a transaction that is
// not cached.
func (e *Engine) extraTransactions(t *traversal, tail tangle.Pointer) ([]tangle.Pointer, bool) {
	queue := []tangle.Pointer{tail}
	extras := []tangle.Pointer{}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		if p == tangle.NullPointer || !t.visit(uint64(p)) {
			continue
		}

		s, ok := e.cache.Get(p)
		if !ok {
			return nil, false
		}

		extras = append(extras, p)
		queue = append(queue, s.TrunkPointer, s.BranchPointer)
	}

	return extras, true
}

// bundlesComplete checks that the extra transactions are exactly the members
// of the valid bundle instances started by the extra tails, and that each
// member arrived after critical.
func (e *Engine) bundlesComplete(extras []tangle.Pointer, critical int64) bool {
	remaining := make(map[tangle.Pointer]struct{}, len(extras))
	for _, p := range extras {
		remaining[p] = struct{}{}
	}

	for _, p := range extras {
		s, ok := e.cache.Get(p)
		if !ok {
			return false
		}
		if !s.IsTail() {
			continue
		}

		bundle, err := e.cache.BundleOf(s.Bundle)
		if err != nil {
			return false
		}
		instance, ok := bundle.Instance(p)
		if !ok {
			return false
		}

		for _, member := range instance {
			arrival := member.EffectiveArrivalTime()
			if ms, ok := e.cache.Get(member.Pointer); ok {
				arrival = ms.ArrivalTime
			}
			if arrival < critical {
				return false
			}
			if _, ok := remaining[member.Pointer]; !ok {
				return false
			}
			delete(remaining, member.Pointer)
		}
	}

	return len(remaining) == 0
}

func (e *Engine) hashOf(p tangle.Pointer) string {
	tx, err := e.store.LoadTransaction(p)
	if err != nil {
		return p.String()
	}
	return tx.Hash.Hex()
}

func (e *Engine) int63n(n int64) int64 {
	e.randLock.Lock()
	defer e.randLock.Unlock()
	return e.rand.Int63n(n)
}

// GetStats returns counters about tip selection.
func (e *Engine) GetStats() map[string]string {
	return e.stats.toMap()
}

type stats struct {
	calls     int64
	nanos     int64
	confirmed int64
}

func (s *stats) record(start time.Time) {
	atomic.AddInt64(&s.calls, 1)
	atomic.AddInt64(&s.nanos, int64(time.Since(start)))
}

func (s *stats) setConfirmed(n int) {
	atomic.StoreInt64(&s.confirmed, int64(n))
}

func (s *stats) toMap() map[string]string {
	calls := atomic.LoadInt64(&s.calls)
	nanos := atomic.LoadInt64(&s.nanos)

	avg := time.Duration(0)
	if calls > 0 {
		avg = time.Duration(nanos / calls)
	}

	return map[string]string{
		"tip_selections":         strconv.FormatInt(calls, 10),
		"tip_selection_avg_time": avg.String(),
		"confirmed_transactions": strconv.FormatInt(atomic.LoadInt64(&s.confirmed), 10),
	}
}
