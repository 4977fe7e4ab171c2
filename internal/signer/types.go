package signer

// Seat identifies one unit of inventory inside a tier.
type Seat struct {
	Section    string `json:"section"`
	SeatNumber string `json:"seat_number"`
	TierID     string `json:"tier_id"`
}

// Voucher is a signed, time-boxed, single-use authorization to claim seats.
// It is produced by an off-chain signing service; the ledger only verifies.
type Voucher struct {
	ContextID string `json:"context_id"`
	Recipient string `json:"recipient"`
	Seats     []Seat `json:"seats"`
	Nonce     uint64 `json:"nonce"`
	Deadline  int64  `json:"deadline"` // unix seconds
}
