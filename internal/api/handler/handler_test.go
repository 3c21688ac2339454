package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dgc-network/dgc-indexer/pkg/model"
	"github.com/dgc-network/dgc-indexer/pkg/projection"
	"github.com/dgc-network/dgc-indexer/pkg/storage"
	"github.com/dgc-network/dgc-indexer/pkg/storage/memory"
	"github.com/dgc-network/dgc-indexer/pkg/version"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testSecret = []byte("test-secret")

func newTestHandler(t *testing.T) (*Handler, *memory.Store) {
	t.Helper()

	adapter := memory.New()
	projector := projection.New(adapter, version.NewResolver(adapter), zap.NewNop())
	return NewHandler(projector, adapter, zap.NewNop(), testSecret), adapter
}

func seed(t *testing.T, adapter *memory.Store, c storage.Collection, key storage.Key, entity any, block uint64) {
	t.Helper()

	payload, err := json.Marshal(entity)
	require.NoError(t, err)
	store := version.NewStore(adapter, zap.NewNop())
	require.NoError(t, store.Upsert(context.Background(), c, key, payload, block))
}

func get(h *Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.NewRouter().ServeHTTP(rec, req)
	return rec
}

func signToken(t *testing.T, subject string, secret []byte) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject})
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := get(h, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRecordDetailNotFound(t *testing.T) {
	h, adapter := newTestHandler(t)
	require.NoError(t, adapter.MarkBlockApplied(context.Background(), 1))

	rec := get(h, "/api/records/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotReadyAsksForRetry(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := get(h, "/api/records", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestRecordsList(t *testing.T) {
	h, adapter := newTestHandler(t)
	ctx := context.Background()

	seed(t, adapter, storage.Tables, storage.Key{"name": "fish"}, model.Table{Name: "fish"}, 1)
	seed(t, adapter, storage.Records, storage.Key{"record_id": "fish-456"}, model.Record{
		RecordID: "fish-456", TableName: "fish",
	}, 1)
	require.NoError(t, adapter.MarkBlockApplied(ctx, 1))

	rec := get(h, "/api/records?table=fish", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var views []projection.RecordView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "fish-456", views[0].RecordID)
}

func TestParticipantDetailAuth(t *testing.T) {
	h, adapter := newTestHandler(t)
	ctx := context.Background()

	seed(t, adapter, storage.Participants, storage.Key{"public_key": "02alice"}, model.Participant{
		PublicKey: "02alice", Name: "alice",
	}, 1)
	require.NoError(t, adapter.PutUser(ctx, &model.User{
		PublicKey: "02alice", Username: "alice1", Email: "alice@example.com",
	}))
	require.NoError(t, adapter.MarkBlockApplied(ctx, 1))

	decode := func(rec *httptest.ResponseRecorder) projection.ParticipantView {
		var view projection.ParticipantView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		return view
	}

	// Anonymous: public profile only.
	rec := get(h, "/api/participants/02alice", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(rec).Email)

	// Self-lookup with a valid token: account fields included.
	rec = get(h, "/api/participants/02alice", signToken(t, "02alice", testSecret))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice@example.com", decode(rec).Email)

	// A valid token for a different subject stays public.
	rec = get(h, "/api/participants/02alice", signToken(t, "02bob", testSecret))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(rec).Email)

	// A token signed with the wrong secret is treated as anonymous.
	rec = get(h, "/api/participants/02alice", signToken(t, "02alice", []byte("wrong")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(rec).Email)
}

func TestProposalsListFilterPassthrough(t *testing.T) {
	h, adapter := newTestHandler(t)
	ctx := context.Background()

	seed(t, adapter, storage.Proposals, storage.Key{"proposal_id": "prop-1"}, model.Proposal{
		ProposalID: "prop-1", RecordID: "fish-456", IssuingKey: "02alice",
		ReceivingKey: "02bob", Role: model.RoleOwner, Status: model.StatusOpen,
	}, 1)
	seed(t, adapter, storage.Proposals, storage.Key{"proposal_id": "prop-2"}, model.Proposal{
		ProposalID: "prop-2", RecordID: "fish-456", IssuingKey: "02alice",
		ReceivingKey: "02bob", Role: model.RoleOwner, Status: model.StatusRejected,
	}, 1)
	require.NoError(t, adapter.MarkBlockApplied(ctx, 1))

	rec := get(h, "/api/proposals?status=OPEN", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []projection.ProposalEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "prop-1", entries[0].ProposalID)
}
