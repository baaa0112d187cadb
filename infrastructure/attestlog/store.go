// Package attestlog persists the attestation-log lines guests emit, grouped by
// invocation, in a cometbft-db key/value store.
package attestlog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/basm-dev/basm-sdk-go/domain/ports"
)

// ErrInvalidInvocationID is returned for empty IDs and IDs containing the key separator.
var ErrInvalidInvocationID = errors.New("attestlog: invalid invocation id")

const separator = "/"

// Store is a ports.AttestationLog over a cometbft-db database. Records of one invocation
// are stored under "<id>/<sequence>" and read back in append order.
type Store struct {
	db   dbm.DB
	next map[string]uint64
	mu   sync.Mutex
}

var _ ports.AttestationLog = (*Store)(nil)

// Open opens (or creates) a store named name in dir using backend, for example
// "goleveldb" or "memdb".
func Open(name, backend, dir string) (*Store, error) {
	db, err := dbm.NewDB(name, dbm.BackendType(backend), dir)
	if err != nil {
		return nil, fmt.Errorf("attestlog: open %s database %q: %w", backend, name, err)
	}
	return New(db), nil
}

// NewMemStore returns a store that lives in memory only.
func NewMemStore() *Store {
	return New(dbm.NewMemDB())
}

// New wraps an open database.
func New(db dbm.DB) *Store {
	return &Store{db: db, next: make(map[string]uint64)}
}

func validateID(id string) error {
	if id == "" || strings.Contains(id, separator) {
		return fmt.Errorf("%w: %q", ErrInvalidInvocationID, id)
	}
	return nil
}

func recordKey(id string, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%s%020d", id, separator, seq))
}

// prefixRange returns the iterator bounds covering every key of id.
func prefixRange(id string) (start, end []byte) {
	start = []byte(id + separator)
	end = append([]byte(id), separator[0]+1)
	return start, end
}

// Append stores line as the next record of invocationID.
func (s *Store) Append(ctx context.Context, invocationID string, line []byte) error {
	if err := validateID(invocationID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seq, ok := s.next[invocationID]
	if !ok {
		n, err := s.count(invocationID)
		if err != nil {
			return err
		}
		seq = n
	}
	value := make([]byte, len(line))
	copy(value, line)
	if err := s.db.Set(recordKey(invocationID, seq), value); err != nil {
		return fmt.Errorf("attestlog: append to %q: %w", invocationID, err)
	}
	s.next[invocationID] = seq + 1
	return nil
}

// count returns the number of records already stored for id.
func (s *Store) count(id string) (uint64, error) {
	var n uint64
	err := s.scan(id, func([]byte) { n++ })
	return n, err
}

func (s *Store) scan(id string, fn func(value []byte)) error {
	start, end := prefixRange(id)
	iter, err := s.db.Iterator(start, end)
	if err != nil {
		return fmt.Errorf("attestlog: iterate %q: %w", id, err)
	}
	defer iter.Close()

	for ; iter.Valid(); iter.Next() {
		fn(iter.Value())
	}
	if err := iter.Error(); err != nil {
		return fmt.Errorf("attestlog: iterate %q: %w", id, err)
	}
	return nil
}

// Records returns the lines of invocationID in append order.
func (s *Store) Records(ctx context.Context, invocationID string) ([][]byte, error) {
	if err := validateID(invocationID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records [][]byte
	err := s.scan(invocationID, func(value []byte) {
		records = append(records, append([]byte(nil), value...))
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
