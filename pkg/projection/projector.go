// Package projection reassembles the versioned collections into the
// views the query API serves. Every view is computed under one captured
// block horizon: all of its reads observe exactly the versions current
// at that block, no matter what ingestion does meanwhile.
package projection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgc-network/dgc-indexer/pkg/model"
	"github.com/dgc-network/dgc-indexer/pkg/storage"
	"github.com/dgc-network/dgc-indexer/pkg/version"
	"go.uber.org/zap"
)

// ErrNotFound means the requested entity has no version current at the
// horizon.
var ErrNotFound = errors.New("projection: not found")

// Projector joins version-store reads into externally consumed views.
type Projector struct {
	adapter  storage.Adapter
	resolver *version.Resolver
	logger   *zap.Logger
}

// New creates a projector.
func New(adapter storage.Adapter, resolver *version.Resolver, logger *zap.Logger) *Projector {
	return &Projector{adapter: adapter, resolver: resolver, logger: logger}
}

// unmarshalPayload decodes a version's payload into the entity type.
func unmarshalPayload[T any](v storage.Version) (T, error) {
	var out T
	if err := json.Unmarshal(v.Payload, &out); err != nil {
		return out, fmt.Errorf("unmarshal payload: %w", err)
	}
	return out, nil
}

// scanCurrent fetches and decodes every matching current version.
func scanCurrent[T any](ctx context.Context, p *Projector, c storage.Collection, block uint64, filter storage.Filter) ([]T, error) {
	versions, err := p.adapter.ScanCurrent(ctx, c, block, filter)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", c, err)
	}
	out := make([]T, 0, len(versions))
	for _, v := range versions {
		entity, err := unmarshalPayload[T](v)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}

// currentAssociate returns the participant currently holding a role.
// Entries are stable-sorted by timestamp so same-timestamp entries keep
// their appended order; the last entry wins.
func currentAssociate(entries []model.AssociatedParticipant) string {
	if len(entries) == 0 {
		return ""
	}
	sorted := sortAssociates(entries, false)
	return sorted[len(sorted)-1].ParticipantID
}

// sortAssociates returns a stably sorted copy of an association list.
func sortAssociates(entries []model.AssociatedParticipant, desc bool) []model.AssociatedParticipant {
	sorted := append([]model.AssociatedParticipant(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if desc {
			return sorted[i].Timestamp > sorted[j].Timestamp
		}
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	return sorted
}
