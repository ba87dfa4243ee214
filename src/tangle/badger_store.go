package tangle

import (
	"github.com/dgraph-io/badger"
	"github.com/sirupsen/logrus"
)

// BadgerStore is a Store backed by a Badger database.
type BadgerStore struct {
	*persistentStore
}

// LoadOrCreateBadgerStore opens the database at path, creating it if
// necessary, and replays its transactions.
func LoadOrCreateBadgerStore(path string, logger *logrus.Entry) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).
		WithSyncWrites(false).
		WithLogger(logger)

	handle, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		persistentStore: newPersistentStore(&badgerBackend{db: handle}, path),
	}

	n, err := store.load()
	if err != nil {
		handle.Close()
		return nil, err
	}

	logger.WithField("transactions", n).Debug("Loaded Badger store")

	return store, nil
}

type badgerBackend struct {
	db *badger.DB
}

func (b *badgerBackend) set(key, value []byte) error {
	tx := b.db.NewTransaction(true)
	defer tx.Discard()

	if err := tx.Set(key, value); err != nil {
		return err
	}

	return tx.Commit()
}

func (b *badgerBackend) iterate(prefix []byte, fn func(value []byte) error) error {
	return b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			v, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			if err := fn(v); err != nil {
				return err
			}
		}

		return nil
	})
}

func (b *badgerBackend) close() error {
	return b.db.Close()
}
