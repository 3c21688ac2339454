package ingest

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/dgc-network/dgc-indexer/pkg/storage"
	"github.com/dgc-network/dgc-indexer/pkg/storage/memory"
	"github.com/dgc-network/dgc-indexer/pkg/version"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newApplier() (*Applier, *memory.Store) {
	adapter := memory.New()
	return New(version.NewStore(adapter, zap.NewNop()), adapter), adapter
}

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name       string
		collection storage.Collection
		payload    string
		want       storage.Key
	}{
		{
			"participant",
			storage.Participants,
			`{"publicKey":"02abc","name":"alice"}`,
			storage.Key{"public_key": "02abc"},
		},
		{
			"record",
			storage.Records,
			`{"recordId":"fish-456","table":"fish"}`,
			storage.Key{"record_id": "fish-456"},
		},
		{
			"table",
			storage.Tables,
			`{"name":"fish"}`,
			storage.Key{"name": "fish"},
		},
		{
			"property",
			storage.Properties,
			`{"name":"temperature","recordId":"fish-456"}`,
			storage.Key{"name": "temperature", "record_id": "fish-456"},
		},
		{
			"property page",
			storage.PropertyPages,
			`{"name":"temperature","recordId":"fish-456","pageNum":3}`,
			storage.Key{"name": "temperature", "record_id": "fish-456", "page_num": int64(3)},
		},
		{
			"proposal",
			storage.Proposals,
			`{"proposalId":"prop-1","recordId":"fish-456"}`,
			storage.Key{"proposal_id": "prop-1"},
		},
		{
			"exchange",
			storage.Exchanges,
			`{"buyProposalId":"b-1","sellProposalId":"s-1"}`,
			storage.Key{"buy_proposal_id": "b-1", "sell_proposal_id": "s-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveKey(tt.collection, json.RawMessage(tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.want, key)
		})
	}
}

func TestDeriveKeyMissingFields(t *testing.T) {
	tests := []struct {
		name       string
		collection storage.Collection
		payload    string
	}{
		{"participant without key", storage.Participants, `{"name":"alice"}`},
		{"record without id", storage.Records, `{"table":"fish"}`},
		{"property without record", storage.Properties, `{"name":"temperature"}`},
		{"page without pageNum", storage.PropertyPages, `{"name":"temperature","recordId":"fish-456"}`},
		{"exchange without sell side", storage.Exchanges, `{"buyProposalId":"b-1"}`},
		{"unknown collection", storage.Collection("widgets"), `{"name":"w"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveKey(tt.collection, json.RawMessage(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestApplyBlockAdvancesHorizon(t *testing.T) {
	applier, adapter := newApplier()
	ctx := context.Background()

	env := BlockEnvelope{
		BlockNum: 5,
		Entries: []StateEntry{
			{Collection: storage.Records, Payload: json.RawMessage(`{"recordId":"fish-456","table":"fish"}`)},
			{Collection: storage.Participants, Payload: json.RawMessage(`{"publicKey":"02abc","name":"alice"}`)},
		},
	}
	require.NoError(t, applier.ApplyBlock(ctx, env))

	block, err := adapter.MaxAppliedBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), block)

	records, err := adapter.ScanCurrent(ctx, storage.Records, block, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestApplyBlockFailureLeavesHorizon(t *testing.T) {
	applier, adapter := newApplier()
	ctx := context.Background()

	require.NoError(t, applier.ApplyBlock(ctx, BlockEnvelope{
		BlockNum: 5,
		Entries: []StateEntry{
			{Collection: storage.Records, Payload: json.RawMessage(`{"recordId":"fish-456","table":"fish"}`)},
		},
	}))

	// Second entry has no derivable key, so the block must not apply.
	err := applier.ApplyBlock(ctx, BlockEnvelope{
		BlockNum: 6,
		Entries: []StateEntry{
			{Collection: storage.Records, Payload: json.RawMessage(`{"recordId":"fish-789","table":"fish"}`)},
			{Collection: storage.Participants, Payload: json.RawMessage(`{"name":"bob"}`)},
		},
	})
	require.Error(t, err)

	block, err := adapter.MaxAppliedBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), block)
}

func TestApplyBlockRedeliveryIsIdempotent(t *testing.T) {
	applier, adapter := newApplier()
	ctx := context.Background()

	env := BlockEnvelope{
		BlockNum: 5,
		Entries: []StateEntry{
			{Collection: storage.Records, Payload: json.RawMessage(`{"recordId":"fish-456","table":"fish"}`)},
		},
	}
	require.NoError(t, applier.ApplyBlock(ctx, env))
	require.NoError(t, applier.ApplyBlock(ctx, env))

	block, err := adapter.MaxAppliedBlock(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), block)

	records, err := adapter.ScanCurrent(ctx, storage.Records, block, storage.Filter{"recordId": "fish-456"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
