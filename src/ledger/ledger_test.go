package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mosaicnetworks/tangle/src/tangle"
)

func TestStateClone(t *testing.T) {
	alice := tangle.TestHash("alice")
	bob := tangle.TestHash("bob")

	s := State{alice: 10}
	c := s.Clone()
	c.Add(alice, -15)
	c.Add(bob, 5)

	if s[alice] != 10 {
		t.Fatalf("original balance should be 10, not %d", s[alice])
	}

	addr, ok := c.Negative()
	if !ok || addr != alice {
		t.Fatalf("alice should have a negative balance")
	}

	if _, ok := s.Negative(); ok {
		t.Fatalf("original state should have no negative balance")
	}
}

func TestLoadSnapshot(t *testing.T) {
	alice := tangle.TestHash("alice")

	path := filepath.Join(t.TempDir(), "snapshot.json")
	content := `{"index": 7, "balances": {"` + alice.Hex() + `": 100}}`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	snap, err := LoadSnapshot(path)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Index != 7 {
		t.Fatalf("snapshot index should be 7, not %d", snap.Index)
	}

	state, err := snap.State()
	if err != nil {
		t.Fatal(err)
	}
	if state[alice] != 100 {
		t.Fatalf("alice should have 100, not %d", state[alice])
	}

	empty, err := LoadSnapshot("")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty.Balances) != 0 {
		t.Fatalf("empty snapshot should have no balance")
	}
}
