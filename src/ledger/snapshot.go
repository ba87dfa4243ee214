package ledger

import (
	"fmt"
	"os"

	"github.com/ugorji/go/codec"

	"github.com/mosaicnetworks/tangle/src/tangle"
)

// Snapshot is the ledger state at a given milestone index.
type Snapshot struct {
	Index    int              `json:"index"`
	Balances map[string]int64 `json:"balances"`
}

// LoadSnapshot reads a JSON snapshot file. An empty path yields an empty
// snapshot.
func LoadSnapshot(path string) (*Snapshot, error) {
	s := &Snapshot{
		Balances: make(map[string]int64),
	}

	if path == "" {
		return s, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := codec.NewDecoder(f, &codec.JsonHandle{})
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}

	return s, nil
}

// State decodes the balances. Addresses are hexadecimal hashes.
func (s *Snapshot) State() (State, error) {
	state := make(State, len(s.Balances))

	for addr, balance := range s.Balances {
		h, err := tangle.HashFromHex(addr)
		if err != nil {
			return nil, fmt.Errorf("snapshot address %q: %w", addr, err)
		}
		if balance < 0 {
			return nil, fmt.Errorf("snapshot address %q has negative balance %d", addr, balance)
		}
		state[h] = balance
	}

	if total := state.Total(); total > tangle.MaxSupply {
		return nil, fmt.Errorf("snapshot total %d exceeds the supply", total)
	}

	return state, nil
}
