// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package state

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"
	"go.uber.org/atomic"

	gerrors "github.com/tochemey/cmframework/errors"
)

const boltFileMode os.FileMode = 0o600

var boltOptions = bbolt.Options{Timeout: 5 * time.Second, NoGrowSync: true}

// BoltStore implements Store on go.etcd.io/bbolt with one bucket per domain.
//
// bbolt provides single-writer/multi-reader semantics so the store only
// guards its closed state.
type BoltStore struct {
	db     *bbolt.DB
	closed *atomic.Bool
}

var _ Store = (*BoltStore)(nil)

// NewBoltStore opens or creates the database file at path
func NewBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("state: creating %s: %w", filepath.Dir(path), err)
	}
	options := boltOptions
	db, err := bbolt.Open(path, boltFileMode, &options)
	if err != nil {
		return nil, fmt.Errorf("state: opening boltdb: %w", err)
	}
	return &BoltStore{db: db, closed: atomic.NewBool(false)}, nil
}

// Get implements Store
func (s *BoltStore) Get(ctx context.Context, domain, name string) (string, error) {
	if err := s.check(ctx); err != nil {
		return "", err
	}
	var value string
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(domain))
		if bucket == nil {
			return gerrors.ErrStateNotFound
		}
		raw := bucket.Get([]byte(name))
		if raw == nil {
			return gerrors.ErrStateNotFound
		}
		value = string(raw)
		return nil
	})
	return value, err
}

// GetDomain implements Store
func (s *BoltStore) GetDomain(ctx context.Context, domain string) (map[string]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	values := make(map[string]string)
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(domain))
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(k, v []byte) error {
			values[string(k)] = string(v)
			return nil
		})
	})
	return values, err
}

// Set implements Store
func (s *BoltStore) Set(ctx context.Context, domain, name, value string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(domain))
		if err != nil {
			return fmt.Errorf("state: creating domain %q: %w", domain, err)
		}
		return bucket.Put([]byte(name), []byte(value))
	})
}

// Delete implements Store
func (s *BoltStore) Delete(ctx context.Context, domain, name string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(domain))
		if bucket == nil || bucket.Get([]byte(name)) == nil {
			return gerrors.ErrStateNotFound
		}
		return bucket.Delete([]byte(name))
	})
}

// DeleteDomain implements Store
func (s *BoltStore) DeleteDomain(ctx context.Context, domain string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		err := tx.DeleteBucket([]byte(domain))
		if errors.Is(err, bbolt.ErrBucketNotFound) {
			return nil
		}
		return err
	})
}

// Domains implements Store
func (s *BoltStore) Domains(ctx context.Context) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var domains []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			domains = append(domains, string(name))
			return nil
		})
	})
	return domains, err
}

// Close releases the underlying database handle. The file is kept.
func (s *BoltStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.db.Close()
}

func (s *BoltStore) check(ctx context.Context) error {
	if s.closed.Load() {
		return gerrors.ErrStoreClosed
	}
	return ctx.Err()
}
