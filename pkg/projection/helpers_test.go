package projection

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dgc-network/dgc-indexer/pkg/storage"
	"github.com/dgc-network/dgc-indexer/pkg/storage/memory"
	"github.com/dgc-network/dgc-indexer/pkg/version"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fixture wires a projector over the in-memory adapter and exposes the
// version store for seeding state.
type fixture struct {
	adapter   *memory.Store
	store     *version.Store
	projector *Projector
}

func newFixture() *fixture {
	adapter := memory.New()
	return &fixture{
		adapter:   adapter,
		store:     version.NewStore(adapter, zap.NewNop()),
		projector: New(adapter, version.NewResolver(adapter), zap.NewNop()),
	}
}

func (f *fixture) upsert(t *testing.T, c storage.Collection, key storage.Key, entity any, block uint64) {
	t.Helper()
	payload, err := json.Marshal(entity)
	require.NoError(t, err)
	require.NoError(t, f.store.Upsert(context.Background(), c, key, payload, block))
}

func (f *fixture) applied(t *testing.T, block uint64) {
	t.Helper()
	require.NoError(t, f.adapter.MarkBlockApplied(context.Background(), block))
}

func participantKey(publicKey string) storage.Key {
	return storage.Key{"public_key": publicKey}
}

func recordKey(id string) storage.Key {
	return storage.Key{"record_id": id}
}

func tableKey(name string) storage.Key {
	return storage.Key{"name": name}
}

func propertyKey(name, recordID string) storage.Key {
	return storage.Key{"name": name, "record_id": recordID}
}

func pageKey(name, recordID string, pageNum uint32) storage.Key {
	return storage.Key{"name": name, "record_id": recordID, "page_num": int64(pageNum)}
}

func proposalKey(id string) storage.Key {
	return storage.Key{"proposal_id": id}
}
