package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"unfurl/internal/domain"
)

const entryPrefix = "history:"

// BadgerRepository implements the Repository interface using BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// NewBadgerRepository opens (or creates) the history database at dbPath.
func NewBadgerRepository(dbPath string, logger logrus.FieldLogger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.WithField("path", dbPath).Debug("BadgerDB opened")

	return &BadgerRepository{
		db:  db,
		log: logger.WithField("component", "history"),
	}, nil
}

// Close closes the BadgerDB database connection.
func (r *BadgerRepository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	r.log.Debug("BadgerDB closed")
	return nil
}

// entryKey format: history:{url}
func entryKey(url string) []byte {
	return []byte(entryPrefix + url)
}

// SaveEntry stores or replaces the entry for entry.URL.
func (r *BadgerRepository) SaveEntry(ctx context.Context, entry domain.Entry) error {
	log := r.log.WithField("url", entry.URL)

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(entryKey(entry.URL), b))
	})
	if err != nil {
		log.WithError(err).Error("Failed to save history entry")
		return fmt.Errorf("failed to save entry: %w", err)
	}

	log.Debug("History entry saved")
	return nil
}

// ListEntries returns entries newest first.
func (r *BadgerRepository) ListEntries(ctx context.Context, limit int) ([]domain.Entry, error) {
	var entries []domain.Entry

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(entryPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var e domain.Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return fmt.Errorf("failed to unmarshal entry for key %s: %w", string(item.Key()), err)
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.log.WithError(err).Error("Failed to read history")
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// DeleteEntry removes the entry for url.
func (r *BadgerRepository) DeleteEntry(ctx context.Context, url string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(entryKey(url))
	})
	if err != nil {
		r.log.WithError(err).WithField("url", url).Error("Failed to delete history entry")
		return fmt.Errorf("failed to delete entry %s: %w", url, err)
	}
	return nil
}

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
// Badger's info chatter is logged at debug level.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
