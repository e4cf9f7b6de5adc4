package model

// Checkpoint is one finalized batch of transactions, the unit of ingestion.
type Checkpoint struct {
	SequenceNumber uint64        `json:"sequence_number"`
	TimestampMs    uint64        `json:"timestamp_ms"`
	Transactions   []Transaction `json:"transactions"`
}

// Transaction carries its digest and the events it emitted, if any.
type Transaction struct {
	Digest string     `json:"digest"`
	Events []RawEvent `json:"events"`
}

// RawEvent is an emitted event with its undecoded BCS contents.
type RawEvent struct {
	PackageID         string `json:"package_id"`
	TransactionModule string `json:"transaction_module,omitempty"`
	Sender            string `json:"sender,omitempty"`
	Type              string `json:"type"`
	Contents          []byte `json:"contents"`
}
