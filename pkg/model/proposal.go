package model

// ProposalRole is the role a proposal offers to transfer or grant.
type ProposalRole string

const (
	RoleOwner     ProposalRole = "OWNER"
	RoleCustodian ProposalRole = "CUSTODIAN"
	RoleReporter  ProposalRole = "REPORTER"
)

// ProposalStatus tracks a proposal through its lifecycle. Status changes
// arrive as new versions; only OPEN proposals are actionable.
type ProposalStatus string

const (
	StatusOpen     ProposalStatus = "OPEN"
	StatusAccepted ProposalStatus = "ACCEPTED"
	StatusRejected ProposalStatus = "REJECTED"
	StatusCanceled ProposalStatus = "CANCELED"
)

// Proposal is a pending cross-participant action on a record, awaiting
// an answer from the receiving participant.
type Proposal struct {
	ProposalID   string         `json:"proposalId"`
	RecordID     string         `json:"recordId"`
	IssuingKey   string         `json:"issuingKey"`
	ReceivingKey string         `json:"receivingKey"`
	Role         ProposalRole   `json:"role"`
	Properties   []string       `json:"properties,omitempty"`
	Status       ProposalStatus `json:"status"`
	Terms        string         `json:"terms,omitempty"`
	Timestamp    int64          `json:"timestamp"`
}

// Exchange records a matched pair of buy and sell proposals.
type Exchange struct {
	BuyProposalID  string `json:"buyProposalId"`
	SellProposalID string `json:"sellProposalId"`
	Quantity       int64  `json:"quantity,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}
