package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mosaicnetworks/tangle/src/config"
	"github.com/mosaicnetworks/tangle/src/tangled"
)

//NewRunCmd returns the command that starts a tangle node
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Run node",
		PreRunE: loadConfig,
		RunE:    runTangled,
	}
	AddRunFlags(cmd)
	return cmd
}

/*******************************************************************************
* RUN
*******************************************************************************/

func runTangled(cmd *cobra.Command, args []string) error {
	engine := tangled.NewTangled(&_config.Tangle)

	if err := engine.Init(); err != nil {
		_config.Tangle.Logger().Error("Cannot initialize engine:", err)
		return err
	}

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		engine.Shutdown()
	}()

	engine.Run()

	return nil
}

/*******************************************************************************
* CONFIG
*******************************************************************************/

//AddRunFlags adds flags to the Run command
func AddRunFlags(cmd *cobra.Command) {
	c := &_config.Tangle

	cmd.Flags().String("datadir", c.DataDir, "Top-level directory for configuration and data")
	cmd.Flags().String("log", c.LogLevel, "debug, info, warn, error, fatal, panic")
	cmd.Flags().String("log-file", c.LogFile, "Also write logs to this file")

	// Network
	cmd.Flags().StringP("listen", "l", c.BindAddr, "Listen IP:Port of the UDP gossip socket")
	cmd.Flags().Int("max-pool", c.MaxPool, "Number of received datagrams waiting to be processed")
	cmd.Flags().StringSliceP("neighbors", "n", c.Neighbors, "Neighbor URIs (udp://host:port)")

	// Service
	cmd.Flags().StringP("service-listen", "s", c.ServiceAddr, "Listen IP:Port for HTTP service")
	cmd.Flags().Bool("no-service", c.NoService, "Disable HTTP service")

	// Store
	cmd.Flags().Bool("store", c.Store, "Use a database instead of an in-mem store")
	cmd.Flags().String("db", c.DatabaseDir, "Database directory")
	cmd.Flags().String("db-engine", c.DatabaseEngine, "badger or leveldb")

	// Milestones and ledger
	cmd.Flags().String("coordinator", c.Coordinator, "Hex address of the milestone issuer")
	cmd.Flags().String("snapshot", c.Snapshot, "JSON ledger snapshot file")
	cmd.Flags().Int("milestone-start-index", c.MilestoneStartIndex, "Milestone index to start from")
	cmd.Flags().Duration("milestone-interval", c.MilestoneInterval, "Period of the milestone tracker")
	cmd.Flags().Duration("artificial-latency", c.ArtificialLatency, "Max random delay added to the milestone period once synced")

	// Tip selection
	cmd.Flags().Int("rating-threshold", c.RatingThreshold, "Percentage of the best rating a tip must reach")
	cmd.Flags().Int("depth", c.Depth, "Default depth of tip selection")
	cmd.Flags().Int("max-depth", c.MaxDepth, "Max depth of tip selection")
	cmd.Flags().Duration("critical-fallback", c.CriticalFallback, "Walk window when no milestone is known")

	// Node configuration
	cmd.Flags().Int64("timestamp-threshold", c.Node.TimestampThreshold, "Minimum issuer timestamp of received transactions")
	cmd.Flags().Int("min-weight-magnitude", c.Node.MinWeightMagnitude, "Minimum trailing zero bits of transaction hashes")
	cmd.Flags().Int("queue-size", c.Node.QueueSize, "Size of the broadcast queue")
	cmd.Flags().Duration("broadcast-pause", c.Node.BroadcastPause, "Pause between broadcasts")
	cmd.Flags().Duration("tip-request-interval", c.Node.TipRequestInterval, "Period of tip requests")
	cmd.Flags().Duration("dns-refresh-interval", c.Node.DNSRefreshInterval, "Period of neighbor DNS refresh")
	cmd.Flags().Bool("prune-stalled", c.Node.PruneStalled, "Remove stalled neighbors")
	cmd.Flags().Duration("shutdown-grace", c.Node.ShutdownGrace, "Time allowed for duties to stop")
	cmd.Flags().Int("reply-depth", c.Node.ReplyDepth, "Depth of tips sent in replies")
}

func loadConfig(cmd *cobra.Command, args []string) error {

	err := bindFlagsLoadViper(cmd)
	if err != nil {
		return err
	}

	// If --datadir was explicitely set, but not --db, this will update the
	// default database dir to be inside the new datadir
	_config.Tangle.SetDataDir(_config.Tangle.DataDir)

	logFields := logrus.Fields{
		"tangle.DataDir":             _config.Tangle.DataDir,
		"tangle.LogLevel":            _config.Tangle.LogLevel,
		"tangle.BindAddr":            _config.Tangle.BindAddr,
		"tangle.Neighbors":           _config.Tangle.Neighbors,
		"tangle.ServiceAddr":         _config.Tangle.ServiceAddr,
		"tangle.NoService":           _config.Tangle.NoService,
		"tangle.Store":               _config.Tangle.Store,
		"tangle.Coordinator":         _config.Tangle.Coordinator,
		"tangle.Snapshot":            _config.Tangle.Snapshot,
		"tangle.MilestoneStartIndex": _config.Tangle.MilestoneStartIndex,
		"tangle.RatingThreshold":     _config.Tangle.RatingThreshold,
		"tangle.Depth":               _config.Tangle.Depth,
		"tangle.MaxDepth":            _config.Tangle.MaxDepth,
		"node.MinWeightMagnitude":    _config.Tangle.Node.MinWeightMagnitude,
		"node.QueueSize":             _config.Tangle.Node.QueueSize,
		"node.TipRequestInterval":    _config.Tangle.Node.TipRequestInterval,
		"node.PruneStalled":          _config.Tangle.Node.PruneStalled,
	}

	if _config.Tangle.Store {
		logFields["tangle.DatabaseDir"] = _config.Tangle.DatabaseDir
		logFields["tangle.DatabaseEngine"] = _config.Tangle.DatabaseEngine
	}

	_config.Tangle.Logger().WithFields(logFields).Debug("RUN")

	return nil
}

// Bind all flags and read the config into viper
func bindFlagsLoadViper(cmd *cobra.Command) error {
	// Register flags with viper. Include flags from this command and all other
	// persistent flags from the parent
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// first unmarshal to read from CLI flags
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	// look for config file in [datadir]/tangle.toml (.json, .yaml also work)
	viper.SetConfigName(config.DefaultConfigName)
	viper.AddConfigPath(_config.Tangle.DataDir)

	// If a config file is found, read it in. Logging waits for the second
	// unmarshal, which may change the log level and file.
	found := true
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		found = false
	}

	// second unmarshal to read from config file
	if err := viper.Unmarshal(_config); err != nil {
		return err
	}

	if found {
		_config.Tangle.Logger().Debugf("Using config file: %s", viper.ConfigFileUsed())
	} else {
		_config.Tangle.Logger().Debugf("No config file found in: %s", _config.Tangle.DataDir)
	}

	return nil
}
