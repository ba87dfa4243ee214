// Package peers defines the neighbors of a node and implements functions to
// manage the collection of neighbors.
//
// A neighbor is a remote node that this node exchanges transactions with over
// UDP. Neighbors are configured as udp://host:port URIs. The host is resolved
// to an IP address when the neighbor is created, and datagrams are matched to
// neighbors by their source IP:PORT.
//
// Each neighbor carries counters of the transactions it sent: all of them,
// those that were new to this node, and those that were invalid. The node
// uses the counters to report statistics and to detect stalled neighbors.
//
// The neighbors can be persisted in a JSON file so that human operators can
// edit the list between restarts.
package peers
