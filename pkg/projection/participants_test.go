package projection

import (
	"context"
	"testing"

	"github.com/dgc-network/dgc-indexer/pkg/model"
	"github.com/dgc-network/dgc-indexer/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchParticipantPublic(t *testing.T) {
	f := newFixture()

	f.upsert(t, storage.Participants, participantKey("02alice"), model.Participant{
		PublicKey: "02alice", Name: "alice", Balance: 150,
	}, 1)
	require.NoError(t, f.adapter.PutUser(context.Background(), &model.User{
		PublicKey: "02alice", Username: "alice1", Email: "alice@example.com",
	}))
	f.applied(t, 1)

	view, err := f.projector.FetchParticipant(context.Background(), "02alice", false)
	require.NoError(t, err)

	assert.Equal(t, "alice", view.Name)
	assert.Equal(t, int64(150), view.Balance)

	// Unauthenticated lookups never see the account fields.
	assert.Empty(t, view.Username)
	assert.Empty(t, view.Email)
	assert.Empty(t, view.EncryptedKey)
}

func TestFetchParticipantAuthedMergesAccount(t *testing.T) {
	f := newFixture()

	f.upsert(t, storage.Participants, participantKey("02alice"), model.Participant{
		PublicKey: "02alice", Name: "alice",
	}, 1)
	require.NoError(t, f.adapter.PutUser(context.Background(), &model.User{
		PublicKey:    "02alice",
		Username:     "alice1",
		Email:        "alice@example.com",
		EncryptedKey: "ciphertext",
	}))
	f.applied(t, 1)

	view, err := f.projector.FetchParticipant(context.Background(), "02alice", true)
	require.NoError(t, err)

	assert.Equal(t, "alice1", view.Username)
	assert.Equal(t, "alice@example.com", view.Email)
	assert.Equal(t, "ciphertext", view.EncryptedKey)
}

func TestFetchParticipantAuthedWithoutAccount(t *testing.T) {
	f := newFixture()

	f.upsert(t, storage.Participants, participantKey("02alice"), model.Participant{
		PublicKey: "02alice", Name: "alice",
	}, 1)
	f.applied(t, 1)

	// A ledger participant with no stored account still resolves; the
	// private fields just stay empty.
	view, err := f.projector.FetchParticipant(context.Background(), "02alice", true)
	require.NoError(t, err)
	assert.Empty(t, view.Username)
}

func TestFetchParticipantNotFound(t *testing.T) {
	f := newFixture()
	f.applied(t, 1)

	_, err := f.projector.FetchParticipant(context.Background(), "02nobody", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListParticipants(t *testing.T) {
	f := newFixture()

	f.upsert(t, storage.Participants, participantKey("02alice"), model.Participant{
		PublicKey: "02alice", Name: "alice",
	}, 1)
	f.upsert(t, storage.Participants, participantKey("02bob"), model.Participant{
		PublicKey: "02bob", Name: "bob",
	}, 1)
	require.NoError(t, f.adapter.PutUser(context.Background(), &model.User{
		PublicKey: "02alice", Username: "alice1",
	}))
	f.applied(t, 1)

	views, err := f.projector.ListParticipants(context.Background())
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		assert.Empty(t, v.Username)
	}
}
