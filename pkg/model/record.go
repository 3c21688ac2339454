package model

// AssociatedParticipant is one entry of a record's ownership or custody
// history. Entries are appended as transfers happen; the newest entry by
// timestamp names the current holder of the role.
type AssociatedParticipant struct {
	ParticipantID string `json:"participantId"`
	Timestamp     int64  `json:"timestamp"`
}

// Record is a tracked asset. Its property set is named by the table it
// belongs to; Final marks it closed to further updates.
type Record struct {
	RecordID   string                  `json:"recordId"`
	TableName  string                  `json:"table"`
	Final      bool                    `json:"final"`
	Owners     []AssociatedParticipant `json:"owners"`
	Custodians []AssociatedParticipant `json:"custodians"`
}

// Table declares a named schema: the set of properties every record in
// the table carries.
type Table struct {
	Name       string           `json:"name"`
	Properties []PropertySchema `json:"properties"`
}
