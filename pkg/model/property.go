package model

// PropertySchema describes one property slot in a table schema.
type PropertySchema struct {
	Name             string           `json:"name"`
	DataType         DataType         `json:"dataType"`
	Required         bool             `json:"required,omitempty"`
	Fixed            bool             `json:"fixed,omitempty"`
	NumberExponent   int32            `json:"numberExponent,omitempty"`
	Unit             string           `json:"unit,omitempty"`
	EnumOptions      []string         `json:"enumOptions,omitempty"`
	StructProperties []PropertySchema `json:"structProperties,omitempty"`
}

// Reporter is a participant allowed (or formerly allowed) to submit
// values for a property. Index is the reporter's stable position used by
// ReportedValue.ReporterIndex.
type Reporter struct {
	PublicKey  string `json:"publicKey"`
	Authorized bool   `json:"authorized"`
	Index      uint32 `json:"index"`
}

// Property is the per-record instantiation of a schema slot, carrying
// the reporter list and a pointer to the newest page of reported values.
type Property struct {
	Name             string           `json:"name"`
	RecordID         string           `json:"recordId"`
	DataType         DataType         `json:"dataType"`
	Reporters        []Reporter       `json:"reporters"`
	CurrentPage      uint32           `json:"currentPage"`
	Fixed            bool             `json:"fixed,omitempty"`
	NumberExponent   int32            `json:"numberExponent,omitempty"`
	Unit             string           `json:"unit,omitempty"`
	EnumOptions      []string         `json:"enumOptions,omitempty"`
	StructProperties []PropertySchema `json:"structProperties,omitempty"`
}

// Location is a fixed-point geographic coordinate pair, in millionths
// of a degree.
type Location struct {
	Latitude  int64 `json:"latitude"`
	Longitude int64 `json:"longitude"`
}

// StructValue is one named member of a STRUCT report. Members are
// themselves tagged, so structs nest.
type StructValue struct {
	Name          string        `json:"name"`
	DataType      DataType      `json:"dataType"`
	BytesValue    []byte        `json:"bytesValue,omitempty"`
	BooleanValue  bool          `json:"booleanValue,omitempty"`
	NumberValue   int64         `json:"numberValue,omitempty"`
	StringValue   string        `json:"stringValue,omitempty"`
	EnumValue     uint32        `json:"enumValue,omitempty"`
	StructValues  []StructValue `json:"structValues,omitempty"`
	LocationValue *Location     `json:"locationValue,omitempty"`
}

// ReportedValue is a single submission for a property. Exactly one of
// the value fields is meaningful; the owning property's DataType says
// which.
type ReportedValue struct {
	ReporterIndex uint32        `json:"reporterIndex"`
	Timestamp     int64         `json:"timestamp"`
	BytesValue    []byte        `json:"bytesValue,omitempty"`
	BooleanValue  bool          `json:"booleanValue,omitempty"`
	NumberValue   int64         `json:"numberValue,omitempty"`
	StringValue   string        `json:"stringValue,omitempty"`
	EnumValue     uint32        `json:"enumValue,omitempty"`
	StructValues  []StructValue `json:"structValues,omitempty"`
	LocationValue *Location     `json:"locationValue,omitempty"`
}

// PropertyPage holds a bounded window of reported values for one
// property. Pages roll over when full; PageNum orders them.
type PropertyPage struct {
	Name           string          `json:"name"`
	RecordID       string          `json:"recordId"`
	PageNum        uint32          `json:"pageNum"`
	ReportedValues []ReportedValue `json:"reportedValues"`
}
