package store

import (
	"encoding/json"
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned when a record is not found.
var ErrNotFound = errors.New("record not found")

// Bucket names.
const (
	BucketUsers        = "users"
	BucketAccounts     = "accounts"
	BucketTransactions = "transactions"
)

// Store wraps the bbolt database. Records are stored as JSON keyed by
// their natural string key (member number or transaction ID).
type Store struct {
	db *bolt.DB
}

// New opens the database at dbPath and initializes buckets.
func New(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := []string{BucketUsers, BucketAccounts, BucketTransactions}
		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Txn is a handle scoped to one store transaction. Everything done
// through a single Txn commits or rolls back as a unit, and bbolt runs
// one update transaction at a time, which serializes all balance
// mutations.
type Txn struct {
	tx *bolt.Tx
}

// View runs fn in a read-only transaction.
func (s *Store) View(fn func(*Txn) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return fn(&Txn{tx: tx})
	})
}

// Update runs fn in a read-write transaction. If fn returns an error
// the whole transaction rolls back.
func (s *Store) Update(fn func(*Txn) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return fn(&Txn{tx: tx})
	})
}

// get unmarshals the record at key into value.
func (t *Txn) get(bucketName, key string, value interface{}) error {
	b := t.tx.Bucket([]byte(bucketName))
	if b == nil {
		return fmt.Errorf("bucket %s not found", bucketName)
	}

	data := b.Get([]byte(key))
	if data == nil {
		return ErrNotFound
	}

	return json.Unmarshal(data, value)
}

// put marshals value and stores it at key.
func (t *Txn) put(bucketName, key string, value interface{}) error {
	b := t.tx.Bucket([]byte(bucketName))
	if b == nil {
		return fmt.Errorf("bucket %s not found", bucketName)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	return b.Put([]byte(key), data)
}

// delete removes the record at key. Deleting a missing key returns
// ErrNotFound.
func (t *Txn) delete(bucketName, key string) error {
	b := t.tx.Bucket([]byte(bucketName))
	if b == nil {
		return fmt.Errorf("bucket %s not found", bucketName)
	}

	if b.Get([]byte(key)) == nil {
		return ErrNotFound
	}

	return b.Delete([]byte(key))
}

// exists reports whether a record is present at key.
func (t *Txn) exists(bucketName, key string) (bool, error) {
	b := t.tx.Bucket([]byte(bucketName))
	if b == nil {
		return false, fmt.Errorf("bucket %s not found", bucketName)
	}
	return b.Get([]byte(key)) != nil, nil
}

// forEach calls fn for every record in the bucket.
func (t *Txn) forEach(bucketName string, fn func(data []byte) error) error {
	b := t.tx.Bucket([]byte(bucketName))
	if b == nil {
		return fmt.Errorf("bucket %s not found", bucketName)
	}

	return b.ForEach(func(k, v []byte) error {
		return fn(v)
	})
}
