package model

// Participant is the public identity of a network member.
type Participant struct {
	PublicKey string `json:"publicKey"`
	Name      string `json:"name"`
	Balance   int64  `json:"balance"`
	Timestamp int64  `json:"timestamp"`
}

// User holds the private account fields kept alongside a participant.
// Users are not versioned; they live outside the ledger-derived state.
type User struct {
	PublicKey    string `json:"publicKey"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	EncryptedKey string `json:"encryptedKey,omitempty"`
}
