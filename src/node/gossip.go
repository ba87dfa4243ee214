package node

import (
	"github.com/mosaicnetworks/tangle/src/net"
	"github.com/mosaicnetworks/tangle/src/peers"
	"github.com/mosaicnetworks/tangle/src/tangle"
)

// receive processes incoming datagrams until shutdown.
func (n *Node) receive() {
	consumer := n.trans.Consumer()
	for {
		select {
		case d, ok := <-consumer:
			if !ok {
				return
			}
			n.processDatagram(d)
		case <-n.shutdownCh:
			return
		}
	}
}

func (n *Node) processDatagram(d net.Datagram) {
	payload, requested, err := net.ParsePacket(d.Data)
	if err != nil {
		n.logger.WithError(err).WithField("from", d.From).Debug("Dropping datagram")
		return
	}

	nb := n.neighbors.ByAddr(d.From)
	if nb == nil {
		host, port, err := splitAddr(d.From)
		if err != nil {
			n.logger.WithError(err).WithField("from", d.From).Debug("Dropping datagram")
			return
		}
		var added bool
		nb, added = n.neighbors.GetOrAdd(peers.NewNeighbor(host, host, port))
		if added {
			n.logger.WithField("neighbor", d.From).Info("Adding neighbor")
		}
	}

	nb.IncAllTransactions()

	tx, err := tangle.NewTransactionFromBytes(payload, n.conf.MinWeightMagnitude)
	if err != nil {
		nb.IncInvalidTransactions()
		n.logger.WithError(err).WithField("neighbor", nb.NetAddr).Debug("Received invalid transaction")
		return
	}

	if tx.Timestamp <= n.conf.TimestampThreshold {
		nb.IncInvalidTransactions()
		return
	}

	isNew, err := n.storeTransaction(tx, nb.NetAddr)
	if err != nil {
		n.logger.WithError(err).WithField("hash", tx.Hash.Hex()).Error("Storing transaction")
		return
	}
	if isNew {
		nb.IncNewTransactions()
	}

	n.reply(nb, requested)
}

// reply sends the requested transaction back to the neighbor. A request for
// the null hash is answered, once the node is synchronized, on a schedule
// driven by the reply counter.
func (n *Node) reply(nb *peers.Neighbor, requested tangle.Hash) {
	var (
		p     tangle.Pointer
		found bool
	)

	if requested == tangle.NullHash {
		p, found = n.replyToTipRequest()
	} else {
		p, found = n.store.TransactionPointer(requested)
	}

	if !found || p == tangle.NullPointer {
		return
	}

	tx, err := n.store.LoadTransaction(p)
	if err != nil {
		n.logger.WithError(err).Error("Loading transaction to reply with")
		return
	}
	if tx.Prefilled {
		return
	}

	n.send(nb, tx, n.requestHash())
}

func (n *Node) replyToTipRequest() (tangle.Pointer, bool) {
	latest, latestIndex := n.milestones.LatestMilestone()
	_, solidIndex := n.milestones.LatestSolidSubtangleMilestone()

	if latestIndex <= 0 || latestIndex != solidIndex {
		return tangle.NullPointer, false
	}

	counter := n.replyCounter
	n.replyCounter++

	switch {
	case counter%60 == 0:
		return n.store.TransactionPointer(latest)
	case counter%48 == 0:
		return n.milestoneSecondTransaction(latest)
	case counter%24 == 0:
		return n.tipToReply()
	}

	return tangle.NullPointer, false
}

// milestoneSecondTransaction returns the transaction following the milestone
// tail in its bundle.
func (n *Node) milestoneSecondTransaction(latest tangle.Hash) (tangle.Pointer, bool) {
	p, ok := n.store.TransactionPointer(latest)
	if !ok {
		return tangle.NullPointer, false
	}

	tx, err := n.store.LoadTransaction(p)
	if err != nil || tx.Prefilled || tx.LastIndex == 0 {
		return tangle.NullPointer, false
	}

	return tx.TrunkPointer, true
}

func (n *Node) tipToReply() (tangle.Pointer, bool) {
	if n.selector != nil {
		tip, err := n.selector.SelectTip(nil, n.conf.ReplyDepth)
		if err == nil {
			return n.store.TransactionPointer(tip)
		}
		n.logger.WithError(err).Debug("Selecting tip to reply with")
	}

	tips := n.store.Tips()
	if len(tips) == 0 {
		return tangle.NullPointer, false
	}

	return n.store.TransactionPointer(tips[n.rnd.Intn(len(tips))])
}
