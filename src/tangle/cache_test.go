package tangle

import (
	"testing"

	cm "github.com/mosaicnetworks/tangle/src/common"
)

func TestCacheSummaries(t *testing.T) {
	coordinator := TestHash("coordinator")
	tt := NewTestTangle(coordinator)

	m1 := tt.AddMilestone(1, NullHash, NullHash)
	x := tt.Add(m1.Hash, m1.Hash)
	m2 := tt.AddMilestone(2, x.Hash, m1.Hash)

	s, ok := tt.Cache.Get(x.Pointer)
	if !ok {
		t.Fatalf("x should be cached")
	}
	if s.TrunkPointer != m1.Pointer || s.BranchPointer != m1.Pointer {
		t.Fatalf("x should approve m1")
	}
	if s.ArrivalTime != x.ArrivalTime {
		t.Fatalf("arrival time should be %d, not %d", x.ArrivalTime, s.ArrivalTime)
	}

	if _, ok := tt.Cache.Get(NullPointer); ok {
		t.Fatalf("the null pointer should not be cached")
	}

	if at, ok := tt.Cache.MilestoneArrivalTime(2); !ok || at != m2.ArrivalTime {
		t.Fatalf("milestone 2 should have arrived at %d, not %d", m2.ArrivalTime, at)
	}

	if at, ok := tt.Cache.OldestMilestoneArrivalTime(0); !ok || at != m1.ArrivalTime {
		t.Fatalf("oldest milestone should have arrived at %d, not %d", m1.ArrivalTime, at)
	}

	if at, ok := tt.Cache.OldestMilestoneArrivalTime(2); !ok || at != m2.ArrivalTime {
		t.Fatalf("oldest milestone from 2 should have arrived at %d, not %d", m2.ArrivalTime, at)
	}

	if _, ok := tt.Cache.OldestMilestoneArrivalTime(3); ok {
		t.Fatalf("there should be no milestone from index 3")
	}

	t.Run("Build", func(t *testing.T) {
		cache := NewCache(tt.Store, coordinator)
		n, err := cache.Build(cm.NewTestEntry(t, cm.TestLogLevel))
		if err != nil {
			t.Fatal(err)
		}
		if n != 3 || cache.Len() != 3 {
			t.Fatalf("cache should hold 3 summaries, not %d", cache.Len())
		}
		if cache.MilestoneCount() != 2 {
			t.Fatalf("cache should hold 2 milestones, not %d", cache.MilestoneCount())
		}
	})
}

func TestCacheBundleInvalidation(t *testing.T) {
	tt := NewTestTangle(NullHash)

	txs := tt.MakeBundle(NullHash, NullHash, []Hash{TestHash("a"), TestHash("b")}, []int64{-1, 1})
	tt.Insert(txs[0])

	b, err := tt.Cache.BundleOf(txs[0].Bundle)
	if err != nil {
		t.Fatal(err)
	}
	if b.Len() != 0 {
		t.Fatalf("bundle should have no valid instance yet")
	}

	tt.Insert(txs[1])

	b, err = tt.Cache.BundleOf(txs[0].Bundle)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := b.Instance(txs[0].Pointer); !ok {
		t.Fatalf("bundle should be parsed again after a member arrives")
	}
}
