package node

import (
	gonet "net"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mosaicnetworks/tangle/src/peers"
	"github.com/mosaicnetworks/tangle/src/tangle"
)

// broadcast sends queued transactions to every neighbor except the one they
// came from, pausing between transactions.
func (n *Node) broadcast() {
	for {
		tx, origin, ok := n.queue.Pop()
		if !ok {
			select {
			case <-n.queue.Notify():
				continue
			case <-n.shutdownCh:
				return
			}
		}

		requested := n.requestHash()
		for _, nb := range n.neighbors.Snapshot() {
			if nb.NetAddr == origin {
				continue
			}
			n.send(nb, tx, requested)
		}

		select {
		case <-time.After(n.conf.BroadcastPause):
		case <-n.shutdownCh:
			return
		}
	}
}

// requestTips periodically sends the latest milestone to every neighbor with
// a request for one of its tips.
func (n *Node) requestTips() {
	ticker := time.NewTicker(n.conf.TipRequestInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.requestTipsOnce()
			n.logStats()
		case <-n.shutdownCh:
			return
		}
	}
}

func (n *Node) requestTipsOnce() {
	latest, _ := n.milestones.LatestMilestone()

	p, ok := n.store.TransactionPointer(latest)
	if !ok || p == tangle.NullPointer {
		return
	}

	tx, err := n.store.LoadTransaction(p)
	if err != nil || tx.Prefilled {
		return
	}

	for _, nb := range n.neighbors.Snapshot() {
		n.send(nb, tx, tangle.NullHash)
	}
}

// refreshNeighbors periodically re-resolves the host names of neighbors.
func (n *Node) refreshNeighbors() {
	ticker := time.NewTicker(n.conf.DNSRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n.refreshNeighborsOnce()
		case <-n.shutdownCh:
			return
		}
	}
}

// refreshNeighborsOnce replaces the neighbors whose host resolves to a new
// address, and reports or removes the neighbors that sent nothing since the
// previous refresh.
func (n *Node) refreshNeighborsOnce() {
	list := n.neighbors.Snapshot()

	stalled := make(map[*peers.Neighbor]bool)
	for _, nb := range list {
		if nb.CheckStalled() {
			stalled[nb] = true
		}
	}

	for _, nb := range list {
		ip, ok := n.lookup(nb.Host)
		if !ok {
			continue
		}

		replacement := peers.NewNeighbor(nb.Host, ip, nb.Port)
		if replacement.NetAddr == nb.NetAddr {
			continue
		}

		delete(stalled, nb)

		if n.neighbors.Replace(nb, replacement) {
			n.logger.WithFields(logrus.Fields{
				"host": nb.Host,
				"old":  nb.NetAddr,
				"new":  replacement.NetAddr,
			}).Info("Neighbor address changed")
		}
	}

	for nb := range stalled {
		if n.conf.PruneStalled {
			n.neighbors.Remove(nb.NetAddr)
			n.logger.WithField("neighbor", nb.NetAddr).Warn("Removed stalled neighbor")
		} else {
			n.logger.WithField("neighbor", nb.NetAddr).Warn("Neighbor is stalled")
		}
	}
}

// lookup resolves a host name. Literal IP addresses are not looked up.
func (n *Node) lookup(host string) (string, bool) {
	if host == "" || gonet.ParseIP(host) != nil {
		return "", false
	}

	addrs, err := n.resolve(host)
	if err != nil || len(addrs) == 0 {
		n.logger.WithError(err).WithField("host", host).Debug("Resolving neighbor")
		return "", false
	}

	return addrs[0], true
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := gonet.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}
