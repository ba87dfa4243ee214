package node

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/tangle/src/common"
)

// Config contains the gossip parameters of a node.
type Config struct {
	// TimestampThreshold is the issuer timestamp a received transaction must
	// exceed to be processed.
	TimestampThreshold int64 `mapstructure:"timestamp-threshold"`

	// MinWeightMagnitude is the minimum number of trailing zero bits of a
	// transaction hash.
	MinWeightMagnitude int `mapstructure:"min-weight-magnitude"`

	// QueueSize bounds the broadcast queue.
	QueueSize int `mapstructure:"queue-size"`

	// BroadcastPause is the pause between two broadcasts.
	BroadcastPause time.Duration `mapstructure:"broadcast-pause"`

	// TipRequestInterval is the period of the tip request duty.
	TipRequestInterval time.Duration `mapstructure:"tip-request-interval"`

	// DNSRefreshInterval is the period of the DNS refresh duty.
	DNSRefreshInterval time.Duration `mapstructure:"dns-refresh-interval"`

	// PruneStalled removes stalled neighbors instead of only reporting them.
	PruneStalled bool `mapstructure:"prune-stalled"`

	// ShutdownGrace bounds the time Shutdown waits for the duties.
	ShutdownGrace time.Duration `mapstructure:"shutdown-grace"`

	// ReplyDepth is the depth used to select tips sent in replies.
	ReplyDepth int `mapstructure:"reply-depth"`

	Logger *logrus.Logger
}

// NewConfig creates a Config.
func NewConfig(timestampThreshold int64,
	minWeightMagnitude int,
	queueSize int,
	broadcastPause time.Duration,
	tipRequestInterval time.Duration,
	dnsRefreshInterval time.Duration,
	pruneStalled bool,
	shutdownGrace time.Duration,
	replyDepth int,
	logger *logrus.Logger) *Config {

	return &Config{
		TimestampThreshold: timestampThreshold,
		MinWeightMagnitude: minWeightMagnitude,
		QueueSize:          queueSize,
		BroadcastPause:     broadcastPause,
		TipRequestInterval: tipRequestInterval,
		DNSRefreshInterval: dnsRefreshInterval,
		PruneStalled:       pruneStalled,
		ShutdownGrace:      shutdownGrace,
		ReplyDepth:         replyDepth,
		Logger:             logger,
	}
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		TimestampThreshold: 0,
		MinWeightMagnitude: 0,
		QueueSize:          1000,
		BroadcastPause:     time.Millisecond,
		TipRequestInterval: 5 * time.Second,
		DNSRefreshInterval: 30 * time.Minute,
		PruneStalled:       false,
		ShutdownGrace:      6 * time.Second,
		ReplyDepth:         3,
		Logger:             logger,
	}
}

// TestConfig returns a Config with short intervals and a test logger.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.TipRequestInterval = 50 * time.Millisecond
	config.DNSRefreshInterval = time.Hour
	config.ShutdownGrace = time.Second
	config.Logger = common.NewTestLogger(t, common.TestLogLevel)
	return config
}
