// Package net implements the datagram transports used to gossip transactions
// between neighbors.
//
// There are two implementations of the Transport interface:
//
// - UDP: the production transport. Every packet is a single datagram.
//
// - Inmem: in-memory transport used only for testing
//
// Packets
//
// A packet is the wire encoding of a transaction followed by the hash of a
// transaction the sender is missing. The null hash in that position asks the
// receiver for one of its tips instead.
package net
