// Package memory provides an in-memory storage.Adapter with the same
// semantics as the PostgreSQL adapter. It backs package tests and local
// development without a database.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dgc-network/dgc-indexer/pkg/model"
	"github.com/dgc-network/dgc-indexer/pkg/storage"
)

// Store implements storage.Adapter over maps. A single mutex stands in
// for per-key row locks; the atomicity guarantee is the same, only
// coarser.
type Store struct {
	mu       sync.Mutex
	versions map[storage.Collection]map[string][]*storage.Version
	applied  map[uint64]struct{}
	users    map[string]model.User
}

// New returns an empty store.
func New() *Store {
	return &Store{
		versions: make(map[storage.Collection]map[string][]*storage.Version),
		applied:  make(map[uint64]struct{}),
		users:    make(map[string]model.User),
	}
}

// canonicalKey flattens a key into a stable string identity.
func canonicalKey(key storage.Key) string {
	fields := make([]string, 0, len(key))
	for k := range key {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s=%v", f, key[f]))
	}
	return strings.Join(parts, "|")
}

func (s *Store) keySet(c storage.Collection, key storage.Key) []*storage.Version {
	byKey, ok := s.versions[c]
	if !ok {
		return nil
	}
	return byKey[canonicalKey(key)]
}

// UpdateKey runs fn under the store lock.
func (s *Store) UpdateKey(ctx context.Context, c storage.Collection, key storage.Key, fn func(storage.KeyTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&keyTx{store: s, collection: c, key: key})
}

type keyTx struct {
	store      *Store
	collection storage.Collection
	key        storage.Key
}

func (t *keyTx) OpenVersions(ctx context.Context) ([]storage.Version, error) {
	var out []storage.Version
	for _, v := range t.store.keySet(t.collection, t.key) {
		if v.EndBlock == storage.EndBlockInfinity {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (t *keyTx) VersionsStartingAt(ctx context.Context, block uint64) ([]storage.Version, error) {
	var out []storage.Version
	for _, v := range t.store.keySet(t.collection, t.key) {
		if v.StartBlock == block {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (t *keyTx) CloseVersions(ctx context.Context, atBlock uint64) error {
	for _, v := range t.store.keySet(t.collection, t.key) {
		if v.EndBlock == storage.EndBlockInfinity {
			v.EndBlock = atBlock
		}
	}
	return nil
}

func (t *keyTx) InsertVersion(ctx context.Context, v storage.Version) error {
	byKey, ok := t.store.versions[t.collection]
	if !ok {
		byKey = make(map[string][]*storage.Version)
		t.store.versions[t.collection] = byKey
	}
	stored := v
	stored.Payload = append([]byte(nil), v.Payload...)
	ck := canonicalKey(t.key)
	byKey[ck] = append(byKey[ck], &stored)
	return nil
}

// ScanCurrent returns versions current at block whose payload matches
// filter by top-level field equality.
func (s *Store) ScanCurrent(ctx context.Context, c storage.Collection, block uint64, filter storage.Filter) ([]storage.Version, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []storage.Version
	for _, set := range s.versions[c] {
		for _, v := range set {
			if !v.Current(block) {
				continue
			}
			ok, err := matches(v.Payload, filter)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, *v)
			}
		}
	}
	return out, nil
}

func matches(payload []byte, filter storage.Filter) (bool, error) {
	if len(filter) == 0 {
		return true, nil
	}
	var fields map[string]any
	if err := json.Unmarshal(payload, &fields); err != nil {
		return false, fmt.Errorf("unmarshal payload: %w", err)
	}
	for f, want := range filter {
		got, ok := fields[f]
		if !ok {
			return false, nil
		}
		if fmt.Sprint(got) != want {
			return false, nil
		}
	}
	return true, nil
}

// MaxAppliedBlock returns the horizon or storage.ErrNoBlocks.
func (s *Store) MaxAppliedBlock(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.applied) == 0 {
		return 0, storage.ErrNoBlocks
	}
	var max uint64
	for b := range s.applied {
		if b > max {
			max = b
		}
	}
	return max, nil
}

// MarkBlockApplied records an applied block.
func (s *Store) MarkBlockApplied(ctx context.Context, block uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied[block] = struct{}{}
	return nil
}

// GetUser returns a stored user or storage.ErrNotFound.
func (s *Store) GetUser(ctx context.Context, publicKey string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[publicKey]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

// PutUser stores a user keyed by public key.
func (s *Store) PutUser(ctx context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.PublicKey] = *u
	return nil
}
