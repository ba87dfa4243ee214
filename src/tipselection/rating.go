package tipselection

import "github.com/mosaicnetworks/tangle/src/tangle"

// filterCandidates keeps the candidates whose rating is at least threshold
// percent of the best rating. The cutoff is truncated to an integer.
func filterCandidates(candidates []candidate, best int, threshold int) []candidate {
	min := best * threshold / 100

	res := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.rating >= min {
			res = append(res, c)
		}
	}
	return res
}

// weightedChoice draws a candidate with probability proportional to the square
// of its rating. int63n must return a value in [0, n).
func weightedChoice(candidates []candidate, int63n func(n int64) int64) tangle.Hash {
	var total int64
	for _, c := range candidates {
		total += int64(c.rating) * int64(c.rating)
	}

	if total == 0 {
		return candidates[0].hash
	}

	hit := int63n(total)
	for _, c := range candidates {
		hit -= int64(c.rating) * int64(c.rating)
		if hit < 0 {
			return c.hash
		}
	}

	return candidates[len(candidates)-1].hash
}
