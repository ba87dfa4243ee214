package tipselection

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	cm "github.com/mosaicnetworks/tangle/src/common"
	"github.com/mosaicnetworks/tangle/src/ledger"
	"github.com/mosaicnetworks/tangle/src/tangle"
)

type fixedCheckpoint struct {
	hash  tangle.Hash
	index int
}

func (f fixedCheckpoint) LatestSolidSubtangleMilestone() (tangle.Hash, int) {
	return f.hash, f.index
}

var (
	coordinator = tangle.TestHash("coordinator")
	alice       = tangle.TestHash("alice")
	bob         = tangle.TestHash("bob")
)

func initEngine(t *testing.T, tt *tangle.TestTangle, checkpoint *tangle.Transaction, snapshot ledger.State) *Engine {
	conf := NewConfig(75, 15, time.Hour, cm.NewTestEntry(t, cm.TestLogLevel))
	engine := NewEngine(tt.Store,
		tt.Cache,
		fixedCheckpoint{checkpoint.Hash, checkpoint.MilestoneIndex()},
		snapshot,
		conf)
	engine.SetRand(rand.New(rand.NewSource(0)))
	return engine
}

func TestSelectTipCheckpointOnly(t *testing.T) {
	tt := tangle.NewTestTangle(coordinator)
	m := tt.AddMilestone(1, tangle.NullHash, tangle.NullHash)

	engine := initEngine(t, tt, m, ledger.State{})

	tip, err := engine.SelectTip(nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if tip != m.Hash {
		t.Fatalf("tip should be the checkpoint %s, not %s", m.Hash, tip)
	}
}

func TestSelectTipSingleApprover(t *testing.T) {
	tt := tangle.NewTestTangle(coordinator)
	m := tt.AddMilestone(1, tangle.NullHash, tangle.NullHash)
	x := tt.Add(m.Hash, m.Hash)

	engine := initEngine(t, tt, m, ledger.State{})

	tip, err := engine.SelectTip(nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if tip != x.Hash {
		t.Fatalf("tip should be x %s, not %s", x.Hash, tip)
	}

	if confirmed := engine.GetStats()["confirmed_transactions"]; confirmed != "1" {
		t.Fatalf("confirmed transactions should be 1, not %s", confirmed)
	}
}

func TestSelectTipStale(t *testing.T) {
	tt := tangle.NewTestTangle(coordinator)
	m := tt.AddMilestone(1, tangle.NullHash, tangle.NullHash)

	x := tt.MakeBundle(m.Hash, m.Hash, []tangle.Hash{tangle.NullHash}, []int64{0})[0]
	tt.InsertAt(x, m.ArrivalTime-10)

	engine := initEngine(t, tt, m, ledger.State{})

	tip, err := engine.SelectTip(nil, 3)
	if err != nil {
		t.Fatal(err)
	}
	if tip != m.Hash {
		t.Fatalf("stale tip should be discarded, got %s instead of the checkpoint", tip)
	}
}

func TestSelectTipMissingAncestor(t *testing.T) {
	tt := tangle.NewTestTangle(coordinator)
	m := tt.AddMilestone(1, tangle.NullHash, tangle.NullHash)

	missing := tt.MakeBundle(m.Hash, m.Hash, []tangle.Hash{tangle.NullHash}, []int64{0})[0]
	y := tt.Add(missing.Hash, m.Hash)
	x := tt.Add(m.Hash, m.Hash)

	engine := initEngine(t, tt, m, ledger.State{})

	for i := 0; i < 10; i++ {
		tip, err := engine.SelectTip(nil, 3)
		if err != nil {
			t.Fatal(err)
		}
		if tip == y.Hash {
			t.Fatalf("tip approving a missing transaction should be discarded")
		}
		if tip != x.Hash {
			t.Fatalf("tip should be x %s, not %s", x.Hash, tip)
		}
	}
}

func TestSelectTipLedger(t *testing.T) {
	tt := tangle.NewTestTangle(coordinator)
	m := tt.AddMilestone(1, tangle.NullHash, tangle.NullHash)
	spend := tt.AddBundle(m.Hash, m.Hash, []tangle.Hash{alice, bob}, []int64{-5, 5})

	t.Run("Insufficient balance", func(t *testing.T) {
		engine := initEngine(t, tt, m, ledger.State{})

		tip, err := engine.SelectTip(nil, 3)
		if err != nil {
			t.Fatal(err)
		}
		if tip != m.Hash {
			t.Fatalf("overspending tip should be discarded, got %s", tip)
		}
	})

	t.Run("Funded", func(t *testing.T) {
		engine := initEngine(t, tt, m, ledger.State{alice: 10})

		tip, err := engine.SelectTip(nil, 3)
		if err != nil {
			t.Fatal(err)
		}
		if tip != spend[0].Hash {
			t.Fatalf("tip should be the spending tail %s, not %s", spend[0].Hash, tip)
		}
	})
}

func TestSelectTipErrors(t *testing.T) {
	tt := tangle.NewTestTangle(coordinator)
	m := tt.AddMilestone(1, tangle.NullHash, tangle.NullHash)
	invalid := tt.AddBundle(m.Hash, m.Hash, []tangle.Hash{alice, bob}, []int64{-5, 4})

	engine := initEngine(t, tt, m, ledger.State{alice: 10})

	t.Run("Unknown reference", func(t *testing.T) {
		ref := tangle.TestHash("nowhere")
		_, err := engine.SelectTip(&ref, 3)
		if !Is(err, UnknownAncestor) {
			t.Fatalf("err should be UnknownAncestor, not %v", err)
		}
	})

	t.Run("Invalid bundle", func(t *testing.T) {
		ref := invalid[0].Hash
		_, err := engine.SelectTip(&ref, 3)
		if !Is(err, InvalidBundle) {
			t.Fatalf("err should be InvalidBundle, not %v", err)
		}
	})

	t.Run("Unknown checkpoint", func(t *testing.T) {
		other := NewEngine(tt.Store,
			tt.Cache,
			fixedCheckpoint{tangle.TestHash("unknown"), 2},
			ledger.State{},
			NewConfig(75, 15, time.Hour, cm.NewTestEntry(t, cm.TestLogLevel)))
		_, err := other.SelectTip(nil, 3)
		if !Is(err, UnknownAncestor) {
			t.Fatalf("err should be UnknownAncestor, not %v", err)
		}
	})
}

func TestSelectTipSkipsInvalidBundle(t *testing.T) {
	tt := tangle.NewTestTangle(coordinator)
	m := tt.AddMilestone(1, tangle.NullHash, tangle.NullHash)
	invalid := tt.AddBundle(m.Hash, m.Hash, []tangle.Hash{alice, bob}, []int64{-5, 4})
	approver := tt.Add(invalid[0].Hash, m.Hash)
	x := tt.Add(m.Hash, m.Hash)

	engine := initEngine(t, tt, m, ledger.State{alice: 10})

	for i := 0; i < 10; i++ {
		tip, err := engine.SelectTip(nil, 3)
		if err != nil {
			t.Fatal(err)
		}
		if tip == invalid[0].Hash || tip == approver.Hash {
			t.Fatalf("tips through an invalid bundle should be discarded")
		}
		if tip != x.Hash {
			t.Fatalf("tip should be x %s, not %s", x.Hash, tip)
		}
	}
}

func TestTransactionsToApprove(t *testing.T) {
	tt := tangle.NewTestTangle(coordinator)
	m := tt.AddMilestone(1, tangle.NullHash, tangle.NullHash)
	x := tt.Add(m.Hash, m.Hash)
	y := tt.Add(m.Hash, m.Hash)

	engine := initEngine(t, tt, m, ledger.State{})

	trunk, branch, err := engine.TransactionsToApprove(3)
	if err != nil {
		t.Fatal(err)
	}

	if trunk == branch {
		t.Fatalf("trunk and branch should differ")
	}
	for _, h := range []tangle.Hash{trunk, branch} {
		if h != x.Hash && h != y.Hash {
			t.Fatalf("%s should be x or y", h)
		}
	}
}

func TestTransactionsToApproveConflict(t *testing.T) {
	tt := tangle.NewTestTangle(coordinator)
	m := tt.AddMilestone(1, tangle.NullHash, tangle.NullHash)
	tt.AddBundle(m.Hash, m.Hash, []tangle.Hash{alice, bob}, []int64{-10, 10})
	tt.AddBundle(m.Hash, m.Hash, []tangle.Hash{alice, bob}, []int64{-10, 10})

	engine := initEngine(t, tt, m, ledger.State{alice: 10})

	_, _, err := engine.TransactionsToApprove(3)
	if !Is(err, NoCandidate) {
		t.Fatalf("err should be NoCandidate, not %v", err)
	}
}

func TestSelectTipConcurrent(t *testing.T) {
	tt := tangle.NewTestTangle(coordinator)
	m := tt.AddMilestone(1, tangle.NullHash, tangle.NullHash)

	tips := map[tangle.Hash]bool{}
	prev := []tangle.Hash{m.Hash, m.Hash}
	for i := 0; i < 20; i++ {
		tx := tt.Add(prev[0], prev[1])
		tips[tx.Hash] = true
		prev[1] = prev[0]
		prev[0] = tx.Hash
	}

	engine := initEngine(t, tt, m, ledger.State{})

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tip, err := engine.SelectTip(nil, 3)
			if err != nil {
				errs <- err
				return
			}
			if !tips[tip] {
				errs <- newError(NoCandidate, tip.Hex())
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatal(err)
	}
}
