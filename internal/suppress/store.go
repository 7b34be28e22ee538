// Package suppress maintains the persistent do-not-send address list.
package suppress

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/stratomail/blast/internal/email"
)

var bucketSuppressed = []byte("suppressed")

// Entry is one suppressed address with its bookkeeping.
type Entry struct {
	Address string    `json:"address"`
	Reason  string    `json:"reason,omitempty"`
	AddedAt time.Time `json:"added_at"`
}

// Store provides suppression list storage backed by BoltDB. Lookups key
// on the canonical (trimmed, lower-cased) address.
type Store struct {
	db *bolt.DB
}

// Open opens or creates the suppression database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open suppression db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSuppressed)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create suppression bucket: %w", err)
	}

	return &Store{db: db}, nil
}

// Add records an address as suppressed. Re-adding overwrites the entry.
func (s *Store) Add(address, reason string) error {
	entry := Entry{
		Address: address,
		Reason:  reason,
		AddedAt: time.Now(),
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketSuppressed)

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}
		return bucket.Put([]byte(email.Canonical(address)), data)
	})
}

// Remove deletes an address from the list. Removing an absent address is
// not an error.
func (s *Store) Remove(address string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSuppressed).Delete([]byte(email.Canonical(address)))
	})
}

// Contains reports whether the address is suppressed.
func (s *Store) Contains(address string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(bucketSuppressed).Get([]byte(email.Canonical(address))) != nil
		return nil
	})
	return found, err
}

// List returns all entries in key order.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSuppressed).ForEach(func(k, v []byte) error {
			var entry Entry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("failed to unmarshal entry %s: %w", k, err)
			}
			entries = append(entries, entry)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
