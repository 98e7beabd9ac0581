// Package index persists account balances in an ordered pebble key space.
package index

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/azargarov/bankpool/ledger"
)

const keyPrefix = "account/"

// Options configure a Store.
type Options struct {
	// FS overrides the filesystem; nil means the OS filesystem.
	FS vfs.FS

	// NoSync skips fsync on writes. Tests only.
	NoSync bool
}

// Store is a balance index keyed by account id. It is safe for concurrent
// use.
type Store struct {
	db        *pebble.DB
	writeOpts *pebble.WriteOptions
}

// Open opens or creates the index at dir.
func Open(dir string, opts Options) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{FS: opts.FS})
	if err != nil {
		return nil, errors.Wrapf(err, "index: open %s", dir)
	}
	wo := pebble.Sync
	if opts.NoSync {
		wo = pebble.NoSync
	}
	return &Store{db: db, writeOpts: wo}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	return errors.Wrap(s.db.Close(), "index: close")
}

// Get returns the balance stored for id.
func (s *Store) Get(id string) (int64, bool, error) {
	val, closer, err := s.db.Get(keyFor(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrapf(err, "index: get %q", id)
	}
	defer closer.Close()

	balance, err := decodeBalance(val)
	if err != nil {
		return 0, false, errors.Wrapf(err, "index: get %q", id)
	}
	return balance, true, nil
}

// Set stores balance for id.
func (s *Store) Set(id string, balance int64) error {
	return errors.Wrapf(s.db.Set(keyFor(id), encodeBalance(balance), s.writeOpts), "index: set %q", id)
}

// Flush writes every entry in one atomic batch. Nothing is written if any
// entry is rejected.
func (s *Store) Flush(entries []ledger.Balance) error {
	b := s.db.NewBatch()
	defer b.Close()

	var result *multierror.Error
	for _, e := range entries {
		if e.ID == "" {
			result = multierror.Append(result, errors.New("index: empty account id"))
			continue
		}
		if err := b.Set(keyFor(e.ID), encodeBalance(e.Balance), nil); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "index: stage %q", e.ID))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	return errors.Wrap(b.Commit(s.writeOpts), "index: commit flush")
}

// Scan calls fn for every stored account in id order. It stops at the
// first error fn returns.
func (s *Store) Scan(fn func(ledger.Balance) error) error {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: upperBound(),
	})
	if err != nil {
		return errors.Wrap(err, "index: scan")
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		balance, err := decodeBalance(iter.Value())
		if err != nil {
			return errors.Wrapf(err, "index: scan %q", iter.Key())
		}
		id := string(bytes.TrimPrefix(iter.Key(), []byte(keyPrefix)))
		if err := fn(ledger.Balance{ID: id, Balance: balance}); err != nil {
			return err
		}
	}
	return errors.Wrap(iter.Error(), "index: scan")
}

// -------------------- Helpers --------------------

func keyFor(id string) []byte {
	return append([]byte(keyPrefix), id...)
}

// upperBound is the first key after every key carrying keyPrefix.
func upperBound() []byte {
	b := []byte(keyPrefix)
	b[len(b)-1]++
	return b
}

// binary encoding: [balance:8] big endian two's complement
func encodeBalance(balance int64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(balance))
	return buf
}

func decodeBalance(b []byte) (int64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid balance record length %d", len(b))
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}
