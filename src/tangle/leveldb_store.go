package tangle

import (
	"github.com/sirupsen/logrus"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// LevelDBStore is a Store backed by a LevelDB database.
type LevelDBStore struct {
	*persistentStore
}

// LoadOrCreateLevelDBStore opens the database at path, creating it if
// necessary, and replays its transactions.
func LoadOrCreateLevelDBStore(path string, logger *logrus.Entry) (*LevelDBStore, error) {
	handle, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}

	store := &LevelDBStore{
		persistentStore: newPersistentStore(&leveldbBackend{db: handle}, path),
	}

	n, err := store.load()
	if err != nil {
		handle.Close()
		return nil, err
	}

	logger.WithField("transactions", n).Debug("Loaded LevelDB store")

	return store, nil
}

type leveldbBackend struct {
	db *leveldb.DB
}

func (l *leveldbBackend) set(key, value []byte) error {
	return l.db.Put(key, value, nil)
}

func (l *leveldbBackend) iterate(prefix []byte, fn func(value []byte) error) error {
	it := l.db.NewIterator(util.BytesPrefix(prefix), nil)
	defer it.Release()

	for it.Next() {
		v := make([]byte, len(it.Value()))
		copy(v, it.Value())
		if err := fn(v); err != nil {
			return err
		}
	}

	return it.Error()
}

func (l *leveldbBackend) close() error {
	return l.db.Close()
}
