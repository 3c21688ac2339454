package projection

import (
	"context"
	"sort"

	"github.com/dgc-network/dgc-indexer/pkg/codec"
	"github.com/dgc-network/dgc-indexer/pkg/model"
	"github.com/dgc-network/dgc-indexer/pkg/storage"
	"go.uber.org/zap"
)

// ReporterView identifies the participant behind a reported value.
type ReporterView struct {
	Name      string `json:"name"`
	PublicKey string `json:"publicKey"`
}

// ValueUpdate is one decoded report with its provenance.
type ValueUpdate struct {
	Value      any          `json:"value"`
	Timestamp  int64        `json:"timestamp"`
	Reporter   ReporterView `json:"reporter"`
	authorized bool
}

// TimestampedValue is the trimmed form used in record update history.
type TimestampedValue struct {
	Value     any   `json:"value"`
	Timestamp int64 `json:"timestamp"`
}

// PropertyView is one property slot of a record view: schema merged with
// the current value.
type PropertyView struct {
	Name           string         `json:"name"`
	DataType       model.DataType `json:"type"`
	Value          any            `json:"value"`
	Reporters      []string       `json:"reporters"`
	Fixed          bool           `json:"fixed,omitempty"`
	NumberExponent int32          `json:"numberExponent,omitempty"`
	Unit           string         `json:"unit,omitempty"`
}

// PropertyDetail is the standalone property view with full history.
type PropertyDetail struct {
	Name      string         `json:"name"`
	RecordID  string         `json:"recordId"`
	DataType  model.DataType `json:"dataType"`
	Reporters []string       `json:"reporters"`
	Value     *ValueUpdate   `json:"value"`
	Updates   []ValueUpdate  `json:"updates"`
}

// ProposalView is the slice of an open proposal attached to a record.
type ProposalView struct {
	IssuingKey   string             `json:"issuingKey"`
	ReceivingKey string             `json:"receivingKey"`
	Role         model.ProposalRole `json:"role"`
	Properties   []string           `json:"properties,omitempty"`
}

// RecordUpdates is the record's change history, newest first.
type RecordUpdates struct {
	Owners     []model.AssociatedParticipant `json:"owners"`
	Custodians []model.AssociatedParticipant `json:"custodians"`
	Properties map[string][]TimestampedValue `json:"properties"`
}

// RecordView is the full record projection.
type RecordView struct {
	RecordID   string         `json:"recordId"`
	Owner      string         `json:"owner"`
	Custodian  string         `json:"custodian"`
	Final      bool           `json:"final"`
	Properties []PropertyView `json:"properties"`
	Updates    RecordUpdates  `json:"updates"`
	Proposals  []ProposalView `json:"proposals"`
}

// RecordFilter narrows a record list query. Zero fields match all.
type RecordFilter struct {
	TableName string
	RecordID  string
}

func (f RecordFilter) storageFilter() storage.Filter {
	filter := storage.Filter{}
	if f.TableName != "" {
		filter["table"] = f.TableName
	}
	if f.RecordID != "" {
		filter["recordId"] = f.RecordID
	}
	return filter
}

// FetchRecord returns the record projection at the current horizon.
func (p *Projector) FetchRecord(ctx context.Context, recordID string) (*RecordView, error) {
	var view *RecordView
	err := p.resolver.WithCurrentBlock(ctx, func(ctx context.Context, block uint64) error {
		rec, err := p.findRecord(ctx, block, recordID)
		if err != nil {
			return err
		}
		view, err = p.loadRecordView(ctx, block, rec)
		return err
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListRecords returns the projection of every record matching the
// filter. No matches is an empty list, not an error.
func (p *Projector) ListRecords(ctx context.Context, filter RecordFilter) ([]RecordView, error) {
	views := []RecordView{}
	err := p.resolver.WithCurrentBlock(ctx, func(ctx context.Context, block uint64) error {
		records, err := scanCurrent[model.Record](ctx, p, storage.Records, block, filter.storageFilter())
		if err != nil {
			return err
		}
		for _, rec := range records {
			view, err := p.loadRecordView(ctx, block, rec)
			if err != nil {
				return err
			}
			views = append(views, *view)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

// FetchProperty returns one property of a record with its full decoded
// history.
func (p *Projector) FetchProperty(ctx context.Context, recordID, name string) (*PropertyDetail, error) {
	var detail *PropertyDetail
	err := p.resolver.WithCurrentBlock(ctx, func(ctx context.Context, block uint64) error {
		props, err := scanCurrent[model.Property](ctx, p, storage.Properties, block, storage.Filter{
			"recordId": recordID,
			"name":     name,
		})
		if err != nil {
			return err
		}
		if len(props) == 0 {
			return ErrNotFound
		}

		pv, err := p.loadPropertyValues(ctx, block, recordID, props[0])
		if err != nil {
			return err
		}
		detail = &PropertyDetail{
			Name:      name,
			RecordID:  recordID,
			DataType:  props[0].DataType,
			Reporters: authorizedReporterKeys(props[0]),
			Value:     pv.current,
			Updates:   pv.values,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (p *Projector) findRecord(ctx context.Context, block uint64, recordID string) (model.Record, error) {
	records, err := scanCurrent[model.Record](ctx, p, storage.Records, block, storage.Filter{"recordId": recordID})
	if err != nil {
		return model.Record{}, err
	}
	if len(records) == 0 {
		return model.Record{}, ErrNotFound
	}
	return records[0], nil
}

// loadRecordView composes one record's projection: schema from its
// table, property values from the property pages, open proposals, and
// role holders from the association lists.
func (p *Projector) loadRecordView(ctx context.Context, block uint64, rec model.Record) (*RecordView, error) {
	names, err := p.tablePropertyNames(ctx, block, rec.TableName)
	if err != nil {
		return nil, err
	}

	view := &RecordView{
		RecordID:   rec.RecordID,
		Owner:      currentAssociate(rec.Owners),
		Custodian:  currentAssociate(rec.Custodians),
		Final:      rec.Final,
		Properties: []PropertyView{},
		Updates: RecordUpdates{
			Owners:     sortAssociates(rec.Owners, true),
			Custodians: sortAssociates(rec.Custodians, true),
			Properties: map[string][]TimestampedValue{},
		},
		Proposals: []ProposalView{},
	}

	for _, name := range names {
		props, err := scanCurrent[model.Property](ctx, p, storage.Properties, block, storage.Filter{
			"recordId": rec.RecordID,
			"name":     name,
		})
		if err != nil {
			return nil, err
		}
		if len(props) == 0 {
			// Schema names a property no event has created yet. Degrade
			// to a partial view rather than failing the whole record.
			p.logger.Warn("property missing at horizon",
				zap.String("record_id", rec.RecordID),
				zap.String("property", name),
				zap.Uint64("block", block),
			)
			continue
		}
		prop := props[0]

		pv, err := p.loadPropertyValues(ctx, block, rec.RecordID, prop)
		if err != nil {
			return nil, err
		}

		propView := PropertyView{
			Name:      name,
			DataType:  prop.DataType,
			Reporters: authorizedReporterKeys(prop),
		}
		if pv.current != nil {
			propView.Value = pv.current.Value
		}
		if prop.DataType == model.TypeNumber {
			propView.NumberExponent = prop.NumberExponent
		}
		propView.Fixed = prop.Fixed
		propView.Unit = prop.Unit
		view.Properties = append(view.Properties, propView)

		history := make([]TimestampedValue, 0, len(pv.values))
		for _, u := range pv.values {
			history = append(history, TimestampedValue{Value: u.Value, Timestamp: u.Timestamp})
		}
		view.Updates.Properties[name] = history
	}

	proposals, err := scanCurrent[model.Proposal](ctx, p, storage.Proposals, block, storage.Filter{
		"recordId": rec.RecordID,
		"status":   string(model.StatusOpen),
	})
	if err != nil {
		return nil, err
	}
	for _, prop := range proposals {
		view.Proposals = append(view.Proposals, ProposalView{
			IssuingKey:   prop.IssuingKey,
			ReceivingKey: prop.ReceivingKey,
			Role:         prop.Role,
			Properties:   prop.Properties,
		})
	}

	return view, nil
}

// tablePropertyNames returns the property names the record's table
// declares, or nothing if the table is missing at the horizon.
func (p *Projector) tablePropertyNames(ctx context.Context, block uint64, tableName string) ([]string, error) {
	tables, err := scanCurrent[model.Table](ctx, p, storage.Tables, block, storage.Filter{"name": tableName})
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		p.logger.Warn("table missing at horizon",
			zap.String("table", tableName),
			zap.Uint64("block", block),
		)
		return nil, nil
	}

	names := make([]string, 0, len(tables[0].Properties))
	for _, schema := range tables[0].Properties {
		names = append(names, schema.Name)
	}
	return names, nil
}

// propertyValues is the decoded report history of one property.
type propertyValues struct {
	values  []ValueUpdate // newest first, all reporters
	current *ValueUpdate  // newest value from a currently authorized reporter
}

// loadPropertyValues gathers every page of a property, decodes the
// reports with the property's declared type, and resolves reporters.
func (p *Projector) loadPropertyValues(ctx context.Context, block uint64, recordID string, prop model.Property) (propertyValues, error) {
	pages, err := scanCurrent[model.PropertyPage](ctx, p, storage.PropertyPages, block, storage.Filter{
		"recordId": recordID,
		"name":     prop.Name,
	})
	if err != nil {
		return propertyValues{}, err
	}

	if !prop.DataType.Known() {
		p.logger.Warn("property has unknown data type, exposing raw bytes",
			zap.String("record_id", recordID),
			zap.String("property", prop.Name),
			zap.String("data_type", string(prop.DataType)),
		)
	}

	resolver := newReporterResolver(p, block)

	var updates []ValueUpdate
	for _, page := range pages {
		for _, rv := range page.ReportedValues {
			update := ValueUpdate{
				Value:     codec.Decode(&prop, rv),
				Timestamp: rv.Timestamp,
			}
			if int(rv.ReporterIndex) < len(prop.Reporters) {
				reporter := prop.Reporters[rv.ReporterIndex]
				update.Reporter = resolver.resolve(ctx, reporter.PublicKey)
				update.authorized = reporter.Authorized
			} else {
				p.logger.Warn("reported value references unknown reporter",
					zap.String("record_id", recordID),
					zap.String("property", prop.Name),
					zap.Uint32("reporter_index", rv.ReporterIndex),
				)
				update.Reporter = ReporterView{Name: "BAD DATA", PublicKey: "BAD DATA"}
			}
			updates = append(updates, update)
		}
	}

	sort.SliceStable(updates, func(i, j int) bool {
		return updates[i].Timestamp > updates[j].Timestamp
	})

	pv := propertyValues{values: updates}
	for i := range updates {
		if updates[i].authorized {
			pv.current = &updates[i]
			break
		}
	}
	return pv, nil
}

// authorizedReporterKeys returns the public keys currently allowed to
// report on a property.
func authorizedReporterKeys(prop model.Property) []string {
	keys := []string{}
	for _, r := range prop.Reporters {
		if r.Authorized {
			keys = append(keys, r.PublicKey)
		}
	}
	return keys
}

// reporterResolver caches participant lookups within one projection.
type reporterResolver struct {
	projector *Projector
	block     uint64
	cache     map[string]ReporterView
}

func newReporterResolver(p *Projector, block uint64) *reporterResolver {
	return &reporterResolver{projector: p, block: block, cache: map[string]ReporterView{}}
}

func (r *reporterResolver) resolve(ctx context.Context, publicKey string) ReporterView {
	if view, ok := r.cache[publicKey]; ok {
		return view
	}

	view := ReporterView{Name: "BAD DATA", PublicKey: "BAD DATA"}
	participants, err := scanCurrent[model.Participant](ctx, r.projector, storage.Participants, r.block, storage.Filter{
		"publicKey": publicKey,
	})
	if err != nil {
		r.projector.logger.Warn("reporter lookup failed",
			zap.String("public_key", publicKey),
			zap.Error(err),
		)
	} else if len(participants) > 0 {
		view = ReporterView{Name: participants[0].Name, PublicKey: participants[0].PublicKey}
	}

	r.cache[publicKey] = view
	return view
}
