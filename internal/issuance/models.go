package issuance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tier is a pricing/supply class of seats. ReferencePrice is fiat minor
// units (cents). Sold is monotonic and never exceeds MaxSupply.
type Tier struct {
	ID             string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	ReferencePrice int64     `gorm:"not null" json:"reference_price"`
	MaxSupply      int64     `gorm:"not null" json:"max_supply"`
	Sold           int64     `gorm:"not null;default:0" json:"sold"`
	Numbered       bool      `gorm:"not null;default:true" json:"numbered"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SeatClaim marks a (section, seat_number) as permanently claimed. Rows are
// only written for numbered tiers; standing tiers share nominal seat values.
type SeatClaim struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Section    string    `gorm:"uniqueIndex:idx_seat_claim;type:varchar(64);not null" json:"section"`
	SeatNumber string    `gorm:"uniqueIndex:idx_seat_claim;type:varchar(64);not null" json:"seat_number"`
	TierID     string    `gorm:"index;not null" json:"tier_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Ticket is the issued token. TokenID is unique per contract and never
// reused; ownership moves only through TransferTicket.
type Ticket struct {
	ID           uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ContractAddr string    `gorm:"index;not null" json:"contract_addr"`
	TokenID      int64     `gorm:"autoIncrement;uniqueIndex" json:"token_id"`
	Owner        string    `gorm:"index;not null" json:"owner"`
	Section      string    `json:"section"`
	SeatNumber   string    `json:"seat_number"`
	TierID       string    `gorm:"index;not null" json:"tier_id"`
	IssuedAt     time.Time `json:"issued_at"`
}

// NonceCounter is the sole replay guard: one monotonic counter per
// recipient, advanced only after a fully validated consumption.
type NonceCounter struct {
	Recipient string    `gorm:"primaryKey;type:varchar(128)" json:"recipient"`
	Nonce     uint64    `gorm:"not null;default:0" json:"nonce"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Allowance is the pre-approved amount the ledger may pull from an owner
// for a given payment asset.
type Allowance struct {
	Owner     string          `gorm:"primaryKey;type:varchar(128)" json:"owner"`
	Asset     string          `gorm:"primaryKey;type:varchar(32)" json:"asset"`
	Amount    decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LedgerBalance is the net amount the ledger retains per asset after fee
// routing; withdrawals zero it.
type LedgerBalance struct {
	Asset     string          `gorm:"primaryKey;type:varchar(32)" json:"asset"`
	Retained  decimal.Decimal `gorm:"type:numeric;not null" json:"retained"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// LedgerEntry is the audit trail of every fund movement the ledger makes.
type LedgerEntry struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Kind         EntryKind       `gorm:"type:varchar(16);not null" json:"kind"`
	Asset        string          `gorm:"index;not null" json:"asset"`
	Amount       decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Counterparty string          `json:"counterparty"`
	Ref          string          `gorm:"index" json:"ref"`
	CreatedAt    time.Time       `json:"created_at"`
}

// EntryKind classifies a ledger entry.
type EntryKind string

const (
	EntryFee        EntryKind = "FEE"
	EntryNet        EntryKind = "NET"
	EntryRefund     EntryKind = "REFUND"
	EntryWithdrawal EntryKind = "WITHDRAWAL"
)

// LedgerSettings is the singleton administrative state of the ledger.
type LedgerSettings struct {
	ID         int       `gorm:"primaryKey" json:"id"`
	FeeRateBps int64     `gorm:"not null" json:"fee_rate_bps"`
	Treasury   string    `gorm:"not null" json:"treasury"`
	Paused     bool      `gorm:"not null;default:false" json:"paused"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName overrides

func (Tier) TableName() string           { return "tiers" }
func (SeatClaim) TableName() string      { return "seat_claims" }
func (Ticket) TableName() string         { return "tickets" }
func (NonceCounter) TableName() string   { return "nonce_counters" }
func (Allowance) TableName() string      { return "allowances" }
func (LedgerBalance) TableName() string  { return "ledger_balances" }
func (LedgerEntry) TableName() string    { return "ledger_entries" }
func (LedgerSettings) TableName() string { return "ledger_settings" }
