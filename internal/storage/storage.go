// Package storage persists self-play training records.
package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/awesome-archive/cczero/internal/mcts"
)

const trainingPrefix = "training/"

// Store wraps BadgerDB for persistent training-data storage.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) a store in the given directory.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open training store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// trainingKey orders records by game then ply.
func trainingKey(gameID uint64, ply int) []byte {
	key := make([]byte, len(trainingPrefix)+12)
	copy(key, trainingPrefix)
	binary.BigEndian.PutUint64(key[len(trainingPrefix):], gameID)
	binary.BigEndian.PutUint32(key[len(trainingPrefix)+8:], uint32(ply))
	return key
}

// AppendTraining stores the record for one ply of a game.
func (s *Store) AppendTraining(gameID uint64, ply int, data *mcts.V3TrainingData) error {
	raw, err := data.Marshal()
	if err != nil {
		return fmt.Errorf("marshal training record: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(trainingKey(gameID, ply), raw)
	})
	if err != nil {
		return fmt.Errorf("store training record: %w", err)
	}
	return nil
}

// CountTraining returns the number of stored records.
func (s *Store) CountTraining() (int, error) {
	count := 0
	err := s.ForEachTraining(func(uint64, int, []byte) error {
		count++
		return nil
	})
	return count, err
}

// ForEachTraining visits all records in game/ply order.
func (s *Store) ForEachTraining(fn func(gameID uint64, ply int, raw []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(trainingPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := item.Key()
			if len(key) != len(trainingPrefix)+12 {
				continue
			}
			gameID := binary.BigEndian.Uint64(key[len(trainingPrefix):])
			ply := int(binary.BigEndian.Uint32(key[len(trainingPrefix)+8:]))
			if err := item.Value(func(raw []byte) error {
				return fn(gameID, ply, raw)
			}); err != nil {
				return err
			}
		}
		return nil
	})
}
