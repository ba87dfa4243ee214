package tipselection

import (
	"testing"

	"github.com/mosaicnetworks/tangle/src/tangle"
)

func TestFilterCandidates(t *testing.T) {
	candidates := []candidate{
		{tangle.TestHash("a"), 10},
		{tangle.TestHash("b"), 8},
		{tangle.TestHash("c"), 8},
		{tangle.TestHash("d"), 1},
	}

	filtered := filterCandidates(candidates, 10, 75)
	if len(filtered) != 3 {
		t.Fatalf("3 candidates should pass the threshold, not %d", len(filtered))
	}
	for _, c := range filtered {
		if c.rating < 7 {
			t.Fatalf("candidate with rating %d should be filtered out", c.rating)
		}
	}

	edge := filterCandidates([]candidate{{tangle.TestHash("e"), 7}}, 10, 75)
	if len(edge) != 1 {
		t.Fatalf("rating 7 should reach the truncated cutoff of 10 * 75 / 100")
	}
}

func TestWeightedChoice(t *testing.T) {
	candidates := []candidate{
		{tangle.TestHash("a"), 10},
		{tangle.TestHash("b"), 8},
		{tangle.TestHash("c"), 8},
	}

	counts := make(map[tangle.Hash]int)

	var total int64
	for hit := int64(0); hit < 228; hit++ {
		h := weightedChoice(candidates, func(n int64) int64 {
			total = n
			return hit
		})
		counts[h]++
	}

	if total != 228 {
		t.Fatalf("total weight should be 228, not %d", total)
	}

	expected := map[string]int{"a": 100, "b": 64, "c": 64}
	for label, n := range expected {
		if c := counts[tangle.TestHash(label)]; c != n {
			t.Fatalf("%s should be drawn %d times out of 228, not %d", label, n, c)
		}
	}
}
