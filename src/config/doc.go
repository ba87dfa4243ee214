// Package config defines the configuration for a tangle node.
//
// Regardless of how the node is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package to store and forward configuration options. On top of these
// options, the node relies on a data directory, defined by Config.DataDir,
// where it looks for a few additional files:
//
//  tangle.toml // (optional) configuration file, .json and .yaml also work.
//  neighbors.json // (optional) a JSON list of udp:// neighbor URIs.
//  tangle_db // the database directory when Config.Store is set.
package config
