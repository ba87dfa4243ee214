package tangle

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	cm "github.com/mosaicnetworks/tangle/src/common"
)

type storeFactory func(path string, logger *logrus.Entry) (Store, error)

func TestPersistentStores(t *testing.T) {
	factories := map[string]storeFactory{
		"badger": func(path string, logger *logrus.Entry) (Store, error) {
			return LoadOrCreateBadgerStore(path, logger)
		},
		"leveldb": func(path string, logger *logrus.Entry) (Store, error) {
			return LoadOrCreateLevelDBStore(path, logger)
		},
	}

	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			testReload(t, factory)
		})
	}
}

func testReload(t *testing.T, factory storeFactory) {
	logger := cm.NewTestEntry(t, cm.TestLogLevel)
	path := filepath.Join(t.TempDir(), "db")

	store, err := factory(path, logger)
	if err != nil {
		t.Fatal(err)
	}

	if store.StorePath() != path {
		t.Fatalf("store path should be %s, not %s", path, store.StorePath())
	}

	txs := []*Transaction{}
	trunk := NullHash
	for i := 0; i < 10; i++ {
		tx := NewTransaction(TestHash("address"),
			0,
			int64(i+1),
			0,
			0,
			TestHash("bundle"),
			trunk,
			NullHash)
		p, isNew, err := store.StoreTransaction(tx)
		if err != nil {
			t.Fatal(err)
		}
		if !isNew {
			t.Fatalf("transaction %d should be new", i)
		}
		if err := store.SetArrivalTime(p, int64(100+i)); err != nil {
			t.Fatal(err)
		}
		txs = append(txs, tx)
		trunk = tx.Hash
	}

	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	reloaded, err := factory(path, logger)
	if err != nil {
		t.Fatal(err)
	}
	defer reloaded.Close()

	if reloaded.Count() != len(txs) {
		t.Fatalf("reloaded store should count %d transactions, not %d", len(txs), reloaded.Count())
	}

	for i, tx := range txs {
		p, ok := reloaded.TransactionPointer(tx.Hash)
		if !ok {
			t.Fatalf("transaction %d should be reloaded", i)
		}
		if p != tx.Pointer {
			t.Fatalf("transaction %d should have pointer %d, not %d", i, tx.Pointer, p)
		}

		rtx, err := reloaded.LoadTransaction(p)
		if err != nil {
			t.Fatal(err)
		}
		if rtx.ArrivalTime != int64(100+i) {
			t.Fatalf("transaction %d should have arrived at %d, not %d", i, 100+i, rtx.ArrivalTime)
		}
	}

	if tips := reloaded.Tips(); len(tips) != 1 || tips[0] != txs[len(txs)-1].Hash {
		t.Fatalf("the last transaction should be the only tip, tips are %v", tips)
	}
}
