package store

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	bolt "go.etcd.io/bbolt"
)

const snapshotsBktName = "snapshots"

// Bolt is a snapshot storage that uses BoltDB as a backend.
type Bolt struct {
	db *bolt.DB
}

// NewBolt creates new Bolt storage.
func NewBolt(dir string) (*Bolt, error) {
	db, err := bolt.Open(path.Join(dir, "snapshots.db"), 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to make boltdb for %s: %w", dir, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{snapshotsBktName} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create top-level bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("make buckets: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Put writes an aggregation snapshot under the given key, replacing
// any previous one.
func (b *Bolt) Put(_ context.Context, key string, snap Snapshot) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(snapshotsBktName))

		bts, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %w", err)
		}

		if err := bkt.Put([]byte(key), bts); err != nil {
			return fmt.Errorf("put snapshot to storage: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("update storage: %w", err)
	}

	return nil
}

// Get returns the snapshot stored under the given key.
func (b *Bolt) Get(_ context.Context, key string) (snap Snapshot, err error) {
	err = b.db.View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(snapshotsBktName))

		bts := bkt.Get([]byte(key))
		if bts == nil {
			return ErrNotFound
		}

		if err := json.Unmarshal(bts, &snap); err != nil {
			return fmt.Errorf("unmarshal snapshot: %w", err)
		}

		return nil
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("view storage: %w", err)
	}

	return snap, nil
}

// Close closes the storage.
func (b *Bolt) Close() error { return b.db.Close() }
