// Package node implements the gossip component of a tangle node.
//
// Gossip
//
// Nodes exchange transactions with a fixed set of neighbors over UDP. Every
// packet carries one transaction and the hash of a transaction the sender is
// missing. A node that receives a packet stores the transaction if it is new,
// queues it for broadcast to its other neighbors, and answers with the
// requested transaction if it has it. A request for the null hash asks for a
// tip instead: on a schedule driven by a reply counter, the node answers with
// the latest milestone, the second transaction of its bundle, or a tip.
//
// Duties
//
// A running node executes four concurrent duties:
//
// - receive: decode incoming packets, store new transactions, and reply
//
// - broadcast: send queued transactions to every neighbor, heaviest first
//
// - tip request: periodically ask every neighbor for one of its tips
//
// - DNS refresh: periodically re-resolve neighbor host names, replace
// neighbors whose address changed, and report stalled neighbors
//
// All duties stop when the node is shut down. The shutdown waits for them
// for a bounded grace period.
package node
