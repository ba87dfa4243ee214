package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/mosaicnetworks/tangle/src/common"
	"github.com/mosaicnetworks/tangle/src/node"
	"github.com/mosaicnetworks/tangle/src/tangle"
	"github.com/mosaicnetworks/tangle/src/tipselection"
)

// Default filenames.
const (
	// DefaultDatabaseFile is the default name of the folder containing the
	// transaction database.
	DefaultDatabaseFile = "tangle_db"

	// DefaultConfigName is the name of the optional configuration file in the
	// data directory, without extension.
	DefaultConfigName = "tangle"
)

// Database engines.
const (
	BadgerEngine  = "badger"
	LevelDBEngine = "leveldb"
)

// Default configuration values.
const (
	DefaultLogLevel            = "debug"
	DefaultBindAddr            = "0.0.0.0:14600"
	DefaultServiceAddr         = "127.0.0.1:14265"
	DefaultMaxPool             = 64
	DefaultStore               = false
	DefaultDatabaseEngine      = BadgerEngine
	DefaultMilestoneStartIndex = 0
	DefaultMilestoneInterval   = 5 * time.Second
	DefaultArtificialLatency   = 60 * time.Second
	DefaultRatingThreshold     = 75
	DefaultDepth               = 15
	DefaultMaxDepth            = 15
	DefaultCriticalFallback    = time.Hour
)

// Config contains all the configuration properties of a tangle node.
type Config struct {
	// DataDir is the top-level directory containing configuration and data.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// LogFile, when set, receives a copy of the logs at info level and above.
	// Debug logs go to LogFile with a .debug suffix.
	LogFile string `mapstructure:"log-file"`

	// BindAddr is the local address:port of the UDP gossip socket.
	BindAddr string `mapstructure:"listen"`

	// MaxPool bounds the number of received datagrams waiting to be
	// processed.
	MaxPool int `mapstructure:"max-pool"`

	// Neighbors is a list of udp://host:port URIs.
	Neighbors []string `mapstructure:"neighbors"`

	// ServiceAddr is the address:port of the HTTP API.
	ServiceAddr string `mapstructure:"service-listen"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// Store activates persistent storage.
	Store bool `mapstructure:"store"`

	// DatabaseDir is the directory containing the database files.
	DatabaseDir string `mapstructure:"db"`

	// DatabaseEngine is badger or leveldb.
	DatabaseEngine string `mapstructure:"db-engine"`

	// Coordinator is the hex address that issues milestones.
	Coordinator string `mapstructure:"coordinator"`

	// Snapshot is the path of the JSON ledger snapshot. An empty path means
	// an empty ledger.
	Snapshot string `mapstructure:"snapshot"`

	// MilestoneStartIndex is the milestone index the node starts from.
	MilestoneStartIndex int `mapstructure:"milestone-start-index"`

	// MilestoneInterval is the period of the milestone tracker.
	MilestoneInterval time.Duration `mapstructure:"milestone-interval"`

	// ArtificialLatency bounds the random delay added to the milestone
	// tracker period once the node is synchronized.
	ArtificialLatency time.Duration `mapstructure:"artificial-latency"`

	// RatingThreshold is the percentage of the best rating a tip must reach
	// to be drawn.
	RatingThreshold int `mapstructure:"rating-threshold"`

	// Depth is the default depth of tip selection requests.
	Depth int `mapstructure:"depth"`

	// MaxDepth caps the depth of tip selection requests.
	MaxDepth int `mapstructure:"max-depth"`

	// CriticalFallback is how far back walks go when no milestone arrival
	// time is known.
	CriticalFallback time.Duration `mapstructure:"critical-fallback"`

	// Node holds the gossip parameters.
	Node node.Config `mapstructure:",squash"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:             DefaultDataDir(),
		LogLevel:            DefaultLogLevel,
		BindAddr:            DefaultBindAddr,
		MaxPool:             DefaultMaxPool,
		ServiceAddr:         DefaultServiceAddr,
		Store:               DefaultStore,
		DatabaseDir:         DefaultDatabaseDir(),
		DatabaseEngine:      DefaultDatabaseEngine,
		MilestoneStartIndex: DefaultMilestoneStartIndex,
		MilestoneInterval:   DefaultMilestoneInterval,
		ArtificialLatency:   DefaultArtificialLatency,
		RatingThreshold:     DefaultRatingThreshold,
		Depth:               DefaultDepth,
		MaxDepth:            DefaultMaxDepth,
		CriticalFallback:    DefaultCriticalFallback,
		Node:                *node.DefaultConfig(),
	}

	config.Node.Logger = nil

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// SetDataDir sets the top-level directory, and updates the database
// directory if it is currently set to the default value. If the database
// directory is not currently the default, it means the user has explicitely
// set it to something else, so avoid changing it again here.
func (c *Config) SetDataDir(dataDir string) {
	c.DataDir = dataDir
	if c.DatabaseDir == DefaultDatabaseDir() {
		c.DatabaseDir = filepath.Join(dataDir, DefaultDatabaseFile)
	}
}

// CoordinatorAddress decodes the coordinator address. An empty value yields
// the null hash, in which case no milestone is ever recognized.
func (c *Config) CoordinatorAddress() (tangle.Hash, error) {
	if c.Coordinator == "" {
		return tangle.NullHash, nil
	}
	return tangle.HashFromHex(c.Coordinator)
}

// NodeConfig returns the gossip parameters with the configured logger.
func (c *Config) NodeConfig() *node.Config {
	conf := c.Node
	conf.Logger = c.baseLogger()
	return &conf
}

// TipSelectionConfig returns the tip selection parameters.
func (c *Config) TipSelectionConfig() *tipselection.Config {
	return tipselection.NewConfig(
		c.RatingThreshold,
		c.MaxDepth,
		c.CriticalFallback,
		c.baseLogger().WithField("prefix", "tipselection"),
	)
}

// Logger returns a formatted logrus Entry, with prefix set to "tangle".
func (c *Config) Logger() *logrus.Entry {
	return c.baseLogger().WithField("prefix", "tangle")
}

func (c *Config) baseLogger() *logrus.Logger {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			c.logger.Hooks.Add(lfshook.NewHook(
				logFilePaths(c.LogFile),
				&logrus.TextFormatter{},
			))
		}
	}
	return c.logger
}

func logFilePaths(file string) lfshook.PathMap {
	pathMap := lfshook.PathMap{
		logrus.DebugLevel: file + ".debug",
	}
	for _, level := range []logrus.Level{
		logrus.InfoLevel,
		logrus.WarnLevel,
		logrus.ErrorLevel,
		logrus.FatalLevel,
		logrus.PanicLevel,
	} {
		pathMap[level] = file
	}
	return pathMap
}

// DefaultDatabaseDir returns the default path for the database files.
func DefaultDatabaseDir() string {
	return filepath.Join(DefaultDataDir(), DefaultDatabaseFile)
}

// DefaultDataDir return the default directory name for top-level config
// based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	// Try to place the data folder in the user's home dir
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".Tangle")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "Tangle")
		} else {
			return filepath.Join(home, ".tangle")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
