package model

// DecodeError records an event that matched a registered type but whose
// payload could not be decoded.
type DecodeError struct {
	Checkpoint uint64 `json:"checkpoint"`
	TxDigest   string `json:"tx_digest"`
	EventIndex int    `json:"event_index"`
	PackageID  string `json:"package_id"`
	Type       string `json:"type"`
	Kind       string `json:"kind"`
	Error      string `json:"error"`
}
