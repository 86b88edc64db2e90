// Package netcache is a Badger-backed cache for raw NNUE network files,
// keyed by content hash. It lets a tournament harness that restarts the
// engine repeatedly skip re-reading multi-hundred-megabyte weight files
// from slow or network-mounted storage; the bytes it returns still go
// through the normal NNUE parse path, it only replaces the filesystem
// read.
package netcache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/dgraph-io/badger/v4"
)

// Store wraps a Badger database used purely as a content-addressed blob
// cache: key is the hex SHA-256 of the stored bytes.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a netcache database rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open netcache at %s: %w", dir, err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// HashFile computes the hex SHA-256 digest of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Get returns the cached bytes for hash, or ok=false if absent.
func (s *Store) Get(hash string) (data []byte, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(hash))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return item.Value(func(val []byte) error {
			data = append([]byte(nil), val...)
			return nil
		})
	})
	return data, ok, err
}

// Put stores data under hash, overwriting any existing entry.
func (s *Store) Put(hash string, data []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(hash), data)
	})
}

// LoadFile returns path's contents, transparently populating and reusing
// the cache. On a cache miss it reads the file, stores the bytes under
// their hash, and returns them; on a hit it skips the filesystem read
// entirely.
func (s *Store) LoadFile(path string) ([]byte, error) {
	hash, err := HashFile(path)
	if err != nil {
		return nil, err
	}

	if data, ok, err := s.Get(hash); err != nil {
		return nil, err
	} else if ok {
		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := s.Put(hash, data); err != nil {
		return nil, err
	}
	return data, nil
}
