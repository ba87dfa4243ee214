package net

import (
	"fmt"

	"github.com/mosaicnetworks/tangle/src/tangle"
)

// PacketSize is the size of a gossip packet.
const PacketSize = tangle.TransactionSize + tangle.HashSize

// NewPacket concatenates an encoded transaction and a requested hash.
func NewPacket(tx []byte, requested tangle.Hash) []byte {
	packet := make([]byte, PacketSize)
	copy(packet, tx)
	copy(packet[tangle.TransactionSize:], requested[:])
	return packet
}

// ParsePacket splits a packet into the encoded transaction and the requested
// hash.
func ParsePacket(data []byte) ([]byte, tangle.Hash, error) {
	var requested tangle.Hash

	if len(data) != PacketSize {
		return nil, requested, fmt.Errorf("%w: packet of %d bytes instead of %d", tangle.ErrInvalidTransaction, len(data), PacketSize)
	}

	copy(requested[:], data[tangle.TransactionSize:])

	return data[:tangle.TransactionSize], requested, nil
}
