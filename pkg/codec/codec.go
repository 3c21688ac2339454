// Package codec converts reported property values between their tagged
// wire form and the shape the query views expose. A value's wire form
// carries one slot per data type; the owning property's declared type
// selects which slot is meaningful.
package codec

import (
	"fmt"

	"github.com/dgc-network/dgc-indexer/pkg/model"
)

// Decode extracts the value of rv according to the property's declared
// data type. An unrecognized type falls back to the raw bytes slot,
// preserved exactly, so payloads from future schema revisions are never
// rejected here.
func Decode(p *model.Property, rv model.ReportedValue) any {
	switch p.DataType {
	case model.TypeBytes:
		return rv.BytesValue
	case model.TypeBoolean:
		return rv.BooleanValue
	case model.TypeNumber:
		return rv.NumberValue
	case model.TypeString:
		return rv.StringValue
	case model.TypeEnum:
		return EnumSlot(p, rv)
	case model.TypeStruct:
		return StructSlot(p, rv)
	case model.TypeLocation:
		if rv.LocationValue == nil {
			return model.Location{}
		}
		return *rv.LocationValue
	default:
		return rv.BytesValue
	}
}

// EnumSlot resolves the stored enum index against the property's option
// list. Non-enum properties, and indexes outside the option list, yield
// the empty string.
func EnumSlot(p *model.Property, rv model.ReportedValue) string {
	if p.DataType != model.TypeEnum {
		return ""
	}
	if int(rv.EnumValue) >= len(p.EnumOptions) {
		return ""
	}
	return p.EnumOptions[rv.EnumValue]
}

// StructSlot flattens the named sub-properties of a STRUCT report into a
// field-name to value mapping, recursing through nested structs.
// Non-struct properties yield an empty map.
func StructSlot(p *model.Property, rv model.ReportedValue) map[string]any {
	if p.DataType != model.TypeStruct {
		return map[string]any{}
	}
	return flattenStruct(rv.StructValues)
}

func flattenStruct(members []model.StructValue) map[string]any {
	out := make(map[string]any, len(members))
	for _, m := range members {
		out[m.Name] = decodeMember(m)
	}
	return out
}

// decodeMember extracts one struct member's value by its own tag. Enum
// members carry no option list at this level, so the raw index is kept.
func decodeMember(m model.StructValue) any {
	switch m.DataType {
	case model.TypeBytes:
		return m.BytesValue
	case model.TypeBoolean:
		return m.BooleanValue
	case model.TypeNumber:
		return m.NumberValue
	case model.TypeString:
		return m.StringValue
	case model.TypeEnum:
		return m.EnumValue
	case model.TypeStruct:
		return flattenStruct(m.StructValues)
	case model.TypeLocation:
		if m.LocationValue == nil {
			return model.Location{}
		}
		return *m.LocationValue
	default:
		return m.BytesValue
	}
}

// Encode builds the wire form of value for the property's declared data
// type. It is the inverse of Decode for every recognized type; an
// unrecognized type stores raw bytes.
func Encode(p *model.Property, value any) (model.ReportedValue, error) {
	var rv model.ReportedValue

	switch p.DataType {
	case model.TypeBytes:
		b, ok := value.([]byte)
		if !ok {
			return rv, fmt.Errorf("codec: BYTES value must be []byte, got %T", value)
		}
		rv.BytesValue = b
	case model.TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return rv, fmt.Errorf("codec: BOOLEAN value must be bool, got %T", value)
		}
		rv.BooleanValue = b
	case model.TypeNumber:
		n, ok := value.(int64)
		if !ok {
			return rv, fmt.Errorf("codec: NUMBER value must be int64, got %T", value)
		}
		rv.NumberValue = n
	case model.TypeString:
		s, ok := value.(string)
		if !ok {
			return rv, fmt.Errorf("codec: STRING value must be string, got %T", value)
		}
		rv.StringValue = s
	case model.TypeEnum:
		name, ok := value.(string)
		if !ok {
			return rv, fmt.Errorf("codec: ENUM value must be an option name, got %T", value)
		}
		idx := -1
		for i, opt := range p.EnumOptions {
			if opt == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return rv, fmt.Errorf("codec: %q is not an option of %s", name, p.Name)
		}
		rv.EnumValue = uint32(idx)
	case model.TypeStruct:
		members, ok := value.([]model.StructValue)
		if !ok {
			return rv, fmt.Errorf("codec: STRUCT value must be []model.StructValue, got %T", value)
		}
		rv.StructValues = members
	case model.TypeLocation:
		loc, ok := value.(model.Location)
		if !ok {
			return rv, fmt.Errorf("codec: LOCATION value must be model.Location, got %T", value)
		}
		rv.LocationValue = &loc
	default:
		b, ok := value.([]byte)
		if !ok {
			return rv, fmt.Errorf("codec: unknown type %q takes raw bytes, got %T", p.DataType, value)
		}
		rv.BytesValue = b
	}

	return rv, nil
}
