package tangle

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/mosaicnetworks/tangle/src/crypto"
)

const (
	// MessageSize is the size of the free-form message field.
	MessageSize = 256
	// TagSize is the size of the tag field. Milestones carry their index in
	// the first four bytes of the tag.
	TagSize = 16
	// NonceSize is the size of the proof-of-work nonce.
	NonceSize = 8

	// TransactionSize is the size of an encoded transaction.
	TransactionSize = MessageSize + // message
		HashSize + // address
		8 + // value
		TagSize + // tag
		8 + // timestamp
		4 + // current index
		4 + // last index
		3*HashSize + // bundle, trunk, branch
		NonceSize // nonce

	// MaxSupply bounds the absolute value of a transaction.
	MaxSupply int64 = 2779530283277761
)

var (
	// ErrInvalidTransaction is wrapped by every decoding error.
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// Transaction is a vertex of the tangle. The exported wire fields are covered
// by the hash, the remaining fields are local metadata set by stores and
// caches.
type Transaction struct {
	Message      [MessageSize]byte
	Address      Hash
	Value        int64
	Tag          [TagSize]byte
	Timestamp    int64
	CurrentIndex uint32
	LastIndex    uint32
	Bundle       Hash
	Trunk        Hash
	Branch       Hash
	Nonce        [NonceSize]byte

	Hash          Hash
	Pointer       Pointer
	TrunkPointer  Pointer
	BranchPointer Pointer
	ArrivalTime   int64
	Prefilled     bool

	bytes []byte
}

// NewTransaction creates a transaction from its main fields and seals it.
func NewTransaction(address Hash,
	value int64,
	timestamp int64,
	currentIndex uint32,
	lastIndex uint32,
	bundle Hash,
	trunk Hash,
	branch Hash) *Transaction {

	tx := &Transaction{
		Address:      address,
		Value:        value,
		Timestamp:    timestamp,
		CurrentIndex: currentIndex,
		LastIndex:    lastIndex,
		Bundle:       bundle,
		Trunk:        trunk,
		Branch:       branch,
	}

	tx.Seal()

	return tx
}

// NewTransactionFromBytes decodes and validates an encoded transaction. The
// weight magnitude of the resulting hash must be at least minWeightMagnitude.
func NewTransactionFromBytes(data []byte, minWeightMagnitude int) (*Transaction, error) {
	if len(data) != TransactionSize {
		return nil, fmt.Errorf("%w: %d bytes instead of %d", ErrInvalidTransaction, len(data), TransactionSize)
	}

	tx := &Transaction{}

	off := 0
	next := func(n int) []byte {
		b := data[off : off+n]
		off += n
		return b
	}

	copy(tx.Message[:], next(MessageSize))
	copy(tx.Address[:], next(HashSize))
	tx.Value = int64(binary.BigEndian.Uint64(next(8)))
	copy(tx.Tag[:], next(TagSize))
	tx.Timestamp = int64(binary.BigEndian.Uint64(next(8)))
	tx.CurrentIndex = binary.BigEndian.Uint32(next(4))
	tx.LastIndex = binary.BigEndian.Uint32(next(4))
	copy(tx.Bundle[:], next(HashSize))
	copy(tx.Trunk[:], next(HashSize))
	copy(tx.Branch[:], next(HashSize))
	copy(tx.Nonce[:], next(NonceSize))

	if tx.CurrentIndex > tx.LastIndex {
		return nil, fmt.Errorf("%w: current index %d above last index %d", ErrInvalidTransaction, tx.CurrentIndex, tx.LastIndex)
	}

	if tx.Value > MaxSupply || tx.Value < -MaxSupply {
		return nil, fmt.Errorf("%w: value %d out of range", ErrInvalidTransaction, tx.Value)
	}

	tx.bytes = make([]byte, TransactionSize)
	copy(tx.bytes, data)
	tx.Hash = Hash(crypto.TransactionHash(tx.bytes))

	if wm := tx.WeightMagnitude(); wm < minWeightMagnitude {
		return nil, fmt.Errorf("%w: weight magnitude %d below %d", ErrInvalidTransaction, wm, minWeightMagnitude)
	}

	return tx, nil
}

// Seal encodes the wire fields and computes the hash. It must be called again
// after any wire field is modified.
func (t *Transaction) Seal() {
	t.bytes = t.encode()
	t.Hash = Hash(crypto.TransactionHash(t.bytes))
}

// Bytes returns the wire encoding of the transaction.
func (t *Transaction) Bytes() []byte {
	if t.bytes == nil {
		t.bytes = t.encode()
	}
	return t.bytes
}

func (t *Transaction) encode() []byte {
	buf := make([]byte, 0, TransactionSize)

	buf = append(buf, t.Message[:]...)
	buf = append(buf, t.Address[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(t.Value))
	buf = append(buf, t.Tag[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(t.Timestamp))
	buf = binary.BigEndian.AppendUint32(buf, t.CurrentIndex)
	buf = binary.BigEndian.AppendUint32(buf, t.LastIndex)
	buf = append(buf, t.Bundle[:]...)
	buf = append(buf, t.Trunk[:]...)
	buf = append(buf, t.Branch[:]...)
	buf = append(buf, t.Nonce[:]...)

	return buf
}

// WeightMagnitude is the number of trailing zero bits of the hash.
func (t *Transaction) WeightMagnitude() int {
	return crypto.TrailingZeroBits(t.Hash[:])
}

// IsTail returns true if the transaction is the first of its bundle.
func (t *Transaction) IsTail() bool {
	return t.CurrentIndex == 0
}

// MilestoneIndex decodes the milestone index carried in the tag. It is only
// meaningful for transactions issued by the coordinator.
func (t *Transaction) MilestoneIndex() int {
	return int(binary.BigEndian.Uint32(t.Tag[:4]))
}

// SetMilestoneIndex writes a milestone index into the tag. The transaction
// must be sealed afterwards.
func (t *Transaction) SetMilestoneIndex(index int) {
	binary.BigEndian.PutUint32(t.Tag[:4], uint32(index))
}

// EffectiveArrivalTime is the local arrival time, or the issuer timestamp for
// transactions that were never observed arriving.
func (t *Transaction) EffectiveArrivalTime() int64 {
	if t.ArrivalTime != 0 {
		return t.ArrivalTime
	}
	return t.Timestamp
}

func (t *Transaction) clone() *Transaction {
	c := *t
	return &c
}
