package tangle

import (
	"fmt"
	"sort"
	"sync"

	"github.com/ugorji/go/codec"
)

const transactionPrefix = "tx"

// kvBackend is the minimal key-value interface shared by the database
// engines.
type kvBackend interface {
	set(key, value []byte) error
	iterate(prefix []byte, fn func(value []byte) error) error
	close() error
}

// record is the persisted form of a transaction. Seq preserves insertion
// order, so that replaying records re-allocates pointers in the same order.
type record struct {
	Seq         uint64
	Bytes       []byte
	ArrivalTime int64
}

func (r *record) marshal() ([]byte, error) {
	var b []byte
	enc := codec.NewEncoderBytes(&b, &codec.MsgpackHandle{})
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *record) unmarshal(data []byte) error {
	dec := codec.NewDecoderBytes(data, &codec.MsgpackHandle{})
	return dec.Decode(r)
}

func transactionKey(h Hash) []byte {
	return []byte(fmt.Sprintf("%s_%X", transactionPrefix, h[:]))
}

// persistentStore wraps an InmemStore and writes every new transaction to a
// kvBackend.
type persistentStore struct {
	*InmemStore

	db   kvBackend
	path string

	seqLock sync.Mutex
	seq     uint64
	seqs    map[Pointer]uint64
}

func newPersistentStore(db kvBackend, path string) *persistentStore {
	return &persistentStore{
		InmemStore: NewInmemStore(),
		db:         db,
		path:       path,
		seqs:       make(map[Pointer]uint64),
	}
}

// load replays the persisted transactions into the in-memory indexes.
func (s *persistentStore) load() (int, error) {
	records := []*record{}

	err := s.db.iterate([]byte(transactionPrefix+"_"), func(value []byte) error {
		r := new(record)
		if err := r.unmarshal(value); err != nil {
			return err
		}
		records = append(records, r)
		return nil
	})
	if err != nil {
		return 0, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Seq < records[j].Seq
	})

	s.seqLock.Lock()
	defer s.seqLock.Unlock()

	for _, r := range records {
		tx, err := NewTransactionFromBytes(r.Bytes, 0)
		if err != nil {
			return 0, err
		}

		p, _, err := s.InmemStore.StoreTransaction(tx)
		if err != nil {
			return 0, err
		}

		if r.ArrivalTime != 0 {
			if err := s.InmemStore.SetArrivalTime(p, r.ArrivalTime); err != nil {
				return 0, err
			}
		}

		s.seqs[p] = r.Seq
		if r.Seq >= s.seq {
			s.seq = r.Seq + 1
		}
	}

	return len(records), nil
}

// StoreTransaction implements the Store interface.
func (s *persistentStore) StoreTransaction(tx *Transaction) (Pointer, bool, error) {
	p, isNew, err := s.InmemStore.StoreTransaction(tx)
	if err != nil || !isNew {
		return p, isNew, err
	}

	s.seqLock.Lock()
	seq := s.seq
	s.seq++
	s.seqs[p] = seq
	s.seqLock.Unlock()

	r := &record{
		Seq:         seq,
		Bytes:       tx.Bytes(),
		ArrivalTime: tx.ArrivalTime,
	}

	return p, true, s.write(tx.Hash, r)
}

// SetArrivalTime implements the Store interface.
func (s *persistentStore) SetArrivalTime(p Pointer, arrival int64) error {
	if err := s.InmemStore.SetArrivalTime(p, arrival); err != nil {
		return err
	}

	tx, err := s.InmemStore.LoadTransaction(p)
	if err != nil {
		return err
	}

	s.seqLock.Lock()
	seq := s.seqs[p]
	s.seqLock.Unlock()

	r := &record{
		Seq:         seq,
		Bytes:       tx.Bytes(),
		ArrivalTime: arrival,
	}

	return s.write(tx.Hash, r)
}

func (s *persistentStore) write(h Hash, r *record) error {
	val, err := r.marshal()
	if err != nil {
		return err
	}
	return s.db.set(transactionKey(h), val)
}

// Close implements the Store interface.
func (s *persistentStore) Close() error {
	if err := s.InmemStore.Close(); err != nil {
		return err
	}
	return s.db.close()
}

// StorePath implements the Store interface.
func (s *persistentStore) StorePath() string {
	return s.path
}
