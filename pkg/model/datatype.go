package model

// DataType tags the wire representation of a reported property value.
// The set is closed: decoding dispatches on these constants and treats
// anything else as raw bytes so payloads from newer schema revisions
// survive a round trip untouched.
type DataType string

const (
	TypeBytes    DataType = "BYTES"
	TypeBoolean  DataType = "BOOLEAN"
	TypeNumber   DataType = "NUMBER"
	TypeString   DataType = "STRING"
	TypeEnum     DataType = "ENUM"
	TypeStruct   DataType = "STRUCT"
	TypeLocation DataType = "LOCATION"
)

// Known reports whether t is one of the declared data types.
func (t DataType) Known() bool {
	switch t {
	case TypeBytes, TypeBoolean, TypeNumber, TypeString, TypeEnum, TypeStruct, TypeLocation:
		return true
	}
	return false
}
