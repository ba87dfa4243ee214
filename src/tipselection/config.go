// Package tipselection implements the random walk that chooses which tips a
// new transaction approves.
//
// A call runs in four phases. The confirmation phase walks back from the
// entry point, the latest solid milestone or a reference tip, and computes
// the ledger state of its past cone. The frontier phase walks forward from
// the milestone and collects the tails that approve it. The rating phase
// walks back from each tail, rejecting those that lead to missing
// transactions, incomplete or stale bundles, or negative balances, and rates
// the others by the number of transactions they add. The draw phase keeps the
// best-rated tails and picks one with probability proportional to the square
// of its rating.
package tipselection

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Config contains the tip selection parameters.
type Config struct {
	// RatingThreshold is the percentage of the best rating a candidate must
	// reach to be drawn.
	RatingThreshold int

	// MaxDepth bounds the depth accepted by SelectTip.
	MaxDepth int

	// CriticalFallback is how far back walks go when no milestone arrival
	// time is known.
	CriticalFallback time.Duration

	logger *logrus.Entry
}

// NewConfig creates a Config.
func NewConfig(ratingThreshold int,
	maxDepth int,
	criticalFallback time.Duration,
	logger *logrus.Entry) *Config {

	return &Config{
		RatingThreshold:  ratingThreshold,
		MaxDepth:         maxDepth,
		CriticalFallback: criticalFallback,
		logger:           logger,
	}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		RatingThreshold:  75,
		MaxDepth:         15,
		CriticalFallback: time.Hour,
	}
}

// Logger returns the configured logger, or a default one.
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.NewEntry(logrus.New())
	}
	return c.logger
}
