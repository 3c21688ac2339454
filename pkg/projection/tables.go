package projection

import (
	"context"

	"github.com/dgc-network/dgc-indexer/pkg/model"
	"github.com/dgc-network/dgc-indexer/pkg/storage"
)

// SchemaEntry is one property's schema in the published table view.
type SchemaEntry struct {
	DataType         model.DataType         `json:"dataType"`
	Required         bool                   `json:"required,omitempty"`
	Fixed            bool                   `json:"fixed,omitempty"`
	NumberExponent   int32                  `json:"numberExponent,omitempty"`
	Unit             string                 `json:"unit,omitempty"`
	EnumOptions      []string               `json:"enumOptions,omitempty"`
	StructProperties []model.PropertySchema `json:"structProperties,omitempty"`
}

// TableView publishes a table's property list as a name-keyed mapping.
type TableView struct {
	Name       string                 `json:"name"`
	Properties map[string]SchemaEntry `json:"properties"`
}

func publishTable(t model.Table) TableView {
	view := TableView{Name: t.Name, Properties: make(map[string]SchemaEntry, len(t.Properties))}
	for _, schema := range t.Properties {
		view.Properties[schema.Name] = SchemaEntry{
			DataType:         schema.DataType,
			Required:         schema.Required,
			Fixed:            schema.Fixed,
			NumberExponent:   schema.NumberExponent,
			Unit:             schema.Unit,
			EnumOptions:      schema.EnumOptions,
			StructProperties: schema.StructProperties,
		}
	}
	return view
}

// FetchTable returns one table's schema view at the current horizon.
func (p *Projector) FetchTable(ctx context.Context, name string) (*TableView, error) {
	var view *TableView
	err := p.resolver.WithCurrentBlock(ctx, func(ctx context.Context, block uint64) error {
		tables, err := scanCurrent[model.Table](ctx, p, storage.Tables, block, storage.Filter{"name": name})
		if err != nil {
			return err
		}
		if len(tables) == 0 {
			return ErrNotFound
		}
		v := publishTable(tables[0])
		view = &v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// ListTables returns every table schema current at the horizon.
func (p *Projector) ListTables(ctx context.Context) ([]TableView, error) {
	views := []TableView{}
	err := p.resolver.WithCurrentBlock(ctx, func(ctx context.Context, block uint64) error {
		tables, err := scanCurrent[model.Table](ctx, p, storage.Tables, block, nil)
		if err != nil {
			return err
		}
		for _, t := range tables {
			views = append(views, publishTable(t))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}
