package codec

import (
	"testing"

	"github.com/dgc-network/dgc-indexer/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func prop(t model.DataType) *model.Property {
	return &model.Property{Name: "p", RecordID: "r1", DataType: t}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		prop  *model.Property
		value any
	}{
		{"bytes", prop(model.TypeBytes), []byte{0xca, 0xfe}},
		{"boolean", prop(model.TypeBoolean), true},
		{"number", prop(model.TypeNumber), int64(-42)},
		{"string", prop(model.TypeString), "shipment received"},
		{"location", prop(model.TypeLocation), model.Location{Latitude: 44982710, Longitude: -93297021}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rv, err := Encode(tt.prop, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.value, Decode(tt.prop, rv))
		})
	}
}

func TestRoundTripEnum(t *testing.T) {
	p := prop(model.TypeEnum)
	p.EnumOptions = []string{"a", "b", "c"}

	rv, err := Encode(p, "b")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), rv.EnumValue)
	assert.Equal(t, "b", Decode(p, rv))

	_, err = Encode(p, "d")
	assert.Error(t, err)
}

func TestRoundTripStruct(t *testing.T) {
	p := prop(model.TypeStruct)
	members := []model.StructValue{
		{Name: "weight", DataType: model.TypeNumber, NumberValue: 12},
		{Name: "label", DataType: model.TypeString, StringValue: "fragile"},
		{Name: "inner", DataType: model.TypeStruct, StructValues: []model.StructValue{
			{Name: "ok", DataType: model.TypeBoolean, BooleanValue: true},
		}},
	}

	rv, err := Encode(p, members)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"weight": int64(12),
		"label":  "fragile",
		"inner":  map[string]any{"ok": true},
	}, Decode(p, rv))
}

func TestUnknownTypeFallsBackToBytes(t *testing.T) {
	p := prop(model.DataType("TIMESTAMP"))
	raw := []byte{0x01, 0x02, 0x03}

	rv, err := Encode(p, raw)
	require.NoError(t, err)

	// The raw representation must survive exactly, not error out.
	assert.Equal(t, raw, Decode(p, rv))
}

func TestEnumResolution(t *testing.T) {
	p := prop(model.TypeEnum)
	p.EnumOptions = []string{"a", "b", "c"}

	assert.Equal(t, "b", EnumSlot(p, model.ReportedValue{EnumValue: 1}))

	// Out-of-range index degrades to empty, not a panic.
	assert.Equal(t, "", EnumSlot(p, model.ReportedValue{EnumValue: 9}))

	// Non-enum properties always present an empty enum slot.
	assert.Equal(t, "", EnumSlot(prop(model.TypeString), model.ReportedValue{EnumValue: 1}))
}

func TestStructSlot(t *testing.T) {
	p := prop(model.TypeStruct)
	rv := model.ReportedValue{StructValues: []model.StructValue{
		{Name: "a", DataType: model.TypeString, StringValue: "x"},
	}}

	assert.Equal(t, map[string]any{"a": "x"}, StructSlot(p, rv))

	// Non-struct properties always present an empty mapping.
	assert.Equal(t, map[string]any{}, StructSlot(prop(model.TypeNumber), rv))
}

func TestEncodeTypeMismatch(t *testing.T) {
	_, err := Encode(prop(model.TypeNumber), "not a number")
	assert.Error(t, err)

	_, err = Encode(prop(model.TypeBoolean), int64(1))
	assert.Error(t, err)
}
