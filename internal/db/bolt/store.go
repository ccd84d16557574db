// Package bolt implements db.Store on top of a local bbolt file.
// Values carry an 8-byte big-endian expiry prefix (unix nanos, 0 = never).
package bolt

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kailas-cloud/medsearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

var bucketKV = []byte("kv")

const expiryPrefixLen = 8

// Store is a single-bucket key-value store backed by bbolt.
type Store struct {
	db     *bbolt.DB
	closed atomic.Bool
	now    func() time.Time
}

// Open creates or opens the bbolt file at path, creating missing parent directories.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create cache dir: %w", err)
	}
	bdb, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}
	err = bdb.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketKV); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketKV, err)
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &Store{db: bdb, now: time.Now}, nil
}

// Ping reports whether the store is still open.
func (s *Store) Ping(_ context.Context) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpPing, Err: db.ErrClosed}
	}
	return nil
}

// WaitForReady returns immediately: a local file is ready once opened.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close releases the file lock.
func (s *Store) Close() {
	if s.closed.CompareAndSwap(false, true) {
		_ = s.db.Close()
	}
}

// Get returns the value for key. Expired entries are reported as missing.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	if s.closed.Load() {
		return nil, &db.Error{Op: db.OpGet, Err: db.ErrClosed}
	}
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketKV).Get([]byte(key))
		if raw == nil {
			return db.ErrKeyNotFound
		}
		if len(raw) < expiryPrefixLen {
			return fmt.Errorf("corrupt entry %q", key)
		}
		exp := int64(binary.BigEndian.Uint64(raw[:expiryPrefixLen]))
		if exp != 0 && s.now().UnixNano() >= exp {
			return db.ErrKeyNotFound
		}
		// bbolt memory is only valid inside the transaction.
		out = append([]byte(nil), raw[expiryPrefixLen:]...)
		return nil
	})
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// SetWithTTL stores value that expires after ttl. A non-positive ttl never expires.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var exp int64
	if ttl > 0 {
		exp = s.now().Add(ttl).UnixNano()
	}
	return s.put(ctx, key, value, exp)
}

func (s *Store) put(_ context.Context, key string, value []byte, exp int64) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpSet, Err: db.ErrClosed}
	}
	buf := make([]byte, expiryPrefixLen+len(value))
	binary.BigEndian.PutUint64(buf[:expiryPrefixLen], uint64(exp))
	copy(buf[expiryPrefixLen:], value)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKV).Put([]byte(key), buf)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	if s.closed.Load() {
		return &db.Error{Op: db.OpDel, Err: db.ErrClosed}
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketKV).Delete([]byte(key))
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}
