// Package storage defines the contract the projection engine needs from
// its backing store: atomic updates scoped to one logical key's version
// set, filtered scans of versions current at a block, and the applied
// block counter. Postgres implements it for production; an in-memory
// adapter implements it for tests.
package storage

import (
	"context"
	"errors"
	"math"

	"github.com/dgc-network/dgc-indexer/pkg/model"
)

// EndBlockInfinity marks the currently active version of a key. It is
// the largest value a BIGINT column can hold, so interval predicates
// need no special casing.
const EndBlockInfinity uint64 = math.MaxInt64

// Collection names one versioned entity table.
type Collection string

const (
	Participants  Collection = "participants"
	Records       Collection = "records"
	Tables        Collection = "tables"
	Properties    Collection = "properties"
	PropertyPages Collection = "property_pages"
	Proposals     Collection = "proposals"
	Exchanges     Collection = "exchanges"
)

// Collections lists every versioned collection, in bootstrap order.
func Collections() []Collection {
	return []Collection{
		Participants, Records, Tables, Properties, PropertyPages, Proposals, Exchanges,
	}
}

// Key identifies a logical entity across its version history, keyed by
// column name. Values are strings except page_num, which is numeric.
type Key map[string]any

// Filter matches top-level payload fields by equality. An empty filter
// matches everything.
type Filter map[string]string

// Version is one time-bounded snapshot of an entity. The interval
// [StartBlock, EndBlock) is half-open; EndBlock == EndBlockInfinity for
// the current version.
type Version struct {
	Key        Key
	StartBlock uint64
	EndBlock   uint64
	Payload    []byte
}

// Current reports whether v is the open version at block.
func (v Version) Current(block uint64) bool {
	return v.StartBlock <= block && v.EndBlock > block
}

var (
	// ErrNoBlocks is returned by MaxAppliedBlock before any block has
	// been applied.
	ErrNoBlocks = errors.New("storage: no blocks applied")

	// ErrNotFound is returned for missing users.
	ErrNotFound = errors.New("storage: not found")
)

// KeyTx exposes the version set of a single key inside an atomic update.
type KeyTx interface {
	// OpenVersions returns the versions of the key whose end block is
	// still EndBlockInfinity.
	OpenVersions(ctx context.Context) ([]Version, error)

	// VersionsStartingAt returns versions of the key, open or closed,
	// whose start block equals block.
	VersionsStartingAt(ctx context.Context, block uint64) ([]Version, error)

	// CloseVersions sets the end block of every open version of the key
	// to atBlock.
	CloseVersions(ctx context.Context, atBlock uint64) error

	// InsertVersion stores a new version of the key.
	InsertVersion(ctx context.Context, v Version) error
}

// Adapter is the storage contract. Implementations guarantee that
// UpdateKey runs fn atomically with respect to other updates of the same
// key; updates of different keys may interleave freely.
type Adapter interface {
	UpdateKey(ctx context.Context, c Collection, key Key, fn func(KeyTx) error) error

	// ScanCurrent returns every version in c current at block whose
	// payload matches filter.
	ScanCurrent(ctx context.Context, c Collection, block uint64, filter Filter) ([]Version, error)

	// MaxAppliedBlock returns the highest fully applied block number, or
	// ErrNoBlocks if ingestion has not caught its first block yet.
	MaxAppliedBlock(ctx context.Context) (uint64, error)

	// MarkBlockApplied records that every event of block has been
	// durably written. Re-marking an applied block is a no-op.
	MarkBlockApplied(ctx context.Context, block uint64) error

	GetUser(ctx context.Context, publicKey string) (*model.User, error)
	PutUser(ctx context.Context, u *model.User) error
}
