// Package tangle defines the transactions of the DAG ledger, the stores that
// hold them, and the in-memory Cache used by tip selection.
//
// Transactions
//
// A Transaction references two predecessors, its trunk and its branch, by
// content hash. Transactions sharing a bundle hash form an atomic transfer.
// The bundle is reconstructed from its tail (current index 0) by following
// trunk links through strictly increasing indexes up to the last index.
//
// Pointers
//
// Stores assign every known hash a Pointer, a small integer handle that is
// stable for the lifetime of the process. A hash that has been referenced but
// not received yet occupies a prefilled slot: its pointer exists, but its
// content is unknown. Pointer 0 is reserved for the null hash, which is the
// genesis reference and is treated as a known terminal node.
//
// Stores
//
// InmemStore keeps everything in memory. BadgerStore and LevelDBStore wrap an
// InmemStore and persist every new transaction, so that the in-memory indexes
// can be rebuilt when the node restarts.
//
// Cache
//
// The Cache mirrors the few fields needed to traverse the tangle quickly, and
// memoizes parsed bundles and milestone arrival times.
package tangle
