// Package ingest applies ledger blocks to the version store. A block is
// a group of state entries delivered at least once; the applier upserts
// every entry and advances the query horizon only when all of them are
// durable.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgc-network/dgc-indexer/pkg/storage"
	"github.com/dgc-network/dgc-indexer/pkg/version"
)

// StateEntry is one entity mutation from the ledger event transport.
type StateEntry struct {
	Collection storage.Collection `json:"collection"`
	Payload    json.RawMessage    `json:"payload"`
}

// BlockEnvelope groups the state entries committed in one block.
type BlockEnvelope struct {
	BlockNum uint64       `json:"blockNum"`
	Entries  []StateEntry `json:"entries"`
}

// Applier writes blocks through the version store.
type Applier struct {
	store   *version.Store
	adapter storage.Adapter
}

// New creates an applier.
func New(store *version.Store, adapter storage.Adapter) *Applier {
	return &Applier{store: store, adapter: adapter}
}

// ApplyBlock upserts every entry of the block, then marks the block
// applied. Any entry failure leaves the horizon where it was so a query
// can never observe a partially applied block; the caller is expected to
// redeliver.
func (a *Applier) ApplyBlock(ctx context.Context, env BlockEnvelope) error {
	start := time.Now()

	for i, entry := range env.Entries {
		key, err := DeriveKey(entry.Collection, entry.Payload)
		if err != nil {
			return fmt.Errorf("block %d entry %d: %w", env.BlockNum, i, err)
		}
		if err := a.store.Upsert(ctx, entry.Collection, key, entry.Payload, env.BlockNum); err != nil {
			return fmt.Errorf("block %d entry %d (%s): %w", env.BlockNum, i, entry.Collection, err)
		}
	}

	if err := a.adapter.MarkBlockApplied(ctx, env.BlockNum); err != nil {
		return fmt.Errorf("mark block %d applied: %w", env.BlockNum, err)
	}

	slog.Debug("applied block",
		"block", env.BlockNum,
		"entries", len(env.Entries),
		"duration", time.Since(start),
	)
	return nil
}

// DeriveKey extracts the logical key of an entry from its payload.
func DeriveKey(c storage.Collection, payload json.RawMessage) (storage.Key, error) {
	var fields struct {
		PublicKey      string  `json:"publicKey"`
		RecordID       string  `json:"recordId"`
		Name           string  `json:"name"`
		PageNum        *uint32 `json:"pageNum"`
		ProposalID     string  `json:"proposalId"`
		BuyProposalID  string  `json:"buyProposalId"`
		SellProposalID string  `json:"sellProposalId"`
	}
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal %s payload: %w", c, err)
	}

	need := func(name, value string) (string, error) {
		if value == "" {
			return "", fmt.Errorf("%s payload missing %s", c, name)
		}
		return value, nil
	}

	switch c {
	case storage.Participants:
		v, err := need("publicKey", fields.PublicKey)
		if err != nil {
			return nil, err
		}
		return storage.Key{"public_key": v}, nil
	case storage.Records:
		v, err := need("recordId", fields.RecordID)
		if err != nil {
			return nil, err
		}
		return storage.Key{"record_id": v}, nil
	case storage.Tables:
		v, err := need("name", fields.Name)
		if err != nil {
			return nil, err
		}
		return storage.Key{"name": v}, nil
	case storage.Properties:
		name, err := need("name", fields.Name)
		if err != nil {
			return nil, err
		}
		recordID, err := need("recordId", fields.RecordID)
		if err != nil {
			return nil, err
		}
		return storage.Key{"name": name, "record_id": recordID}, nil
	case storage.PropertyPages:
		name, err := need("name", fields.Name)
		if err != nil {
			return nil, err
		}
		recordID, err := need("recordId", fields.RecordID)
		if err != nil {
			return nil, err
		}
		if fields.PageNum == nil {
			return nil, fmt.Errorf("%s payload missing pageNum", c)
		}
		return storage.Key{"name": name, "record_id": recordID, "page_num": int64(*fields.PageNum)}, nil
	case storage.Proposals:
		v, err := need("proposalId", fields.ProposalID)
		if err != nil {
			return nil, err
		}
		return storage.Key{"proposal_id": v}, nil
	case storage.Exchanges:
		buy, err := need("buyProposalId", fields.BuyProposalID)
		if err != nil {
			return nil, err
		}
		sell, err := need("sellProposalId", fields.SellProposalID)
		if err != nil {
			return nil, err
		}
		return storage.Key{"buy_proposal_id": buy, "sell_proposal_id": sell}, nil
	default:
		return nil, fmt.Errorf("unknown collection %q", c)
	}
}
