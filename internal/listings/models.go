package listings

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Listing is a fixed-price resale offer. IDs are assigned sequentially
// from 1 and never reused.
type Listing struct {
	ID                  int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	AssetContract       string          `gorm:"index;not null" json:"asset_contract"`
	TokenID             int64           `gorm:"index;not null" json:"token_id"`
	Seller              string          `gorm:"index;not null" json:"seller"`
	Price               decimal.Decimal `gorm:"type:numeric;not null" json:"price"`
	Duration            int64           `gorm:"not null" json:"duration"`
	TicketID            *uuid.UUID      `gorm:"type:uuid;index" json:"ticket_id,omitempty"`
	Active              bool            `gorm:"not null;default:false" json:"active"`
	PendingVerification bool            `gorm:"not null;default:false" json:"pending_verification"`
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// ExpiresAt is the instant after which the listing can no longer be bought.
func (l *Listing) ExpiresAt() time.Time {
	return l.CreatedAt.Add(time.Duration(l.Duration) * time.Second)
}

// TicketState is the registry-side lifecycle record of a tracked ticket.
// DELISTED and SOLD are terminal.
type TicketState struct {
	TicketID  uuid.UUID    `gorm:"type:uuid;primaryKey" json:"ticket_id"`
	Status    TicketStatus `gorm:"type:varchar(16);not null" json:"status"`
	ListingID int64        `gorm:"index" json:"listing_id"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// VerificationRequest correlates an oracle round-trip with its listing.
// Rows are write-once; a request id is never reassigned.
type VerificationRequest struct {
	RequestID uuid.UUID `gorm:"type:uuid;primaryKey" json:"request_id"`
	ListingID int64     `gorm:"index;not null" json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RegistrySettings is the singleton administrative state of the registry.
// FeeBps is capped at 1000 (10%).
type RegistrySettings struct {
	ID           int       `gorm:"primaryKey" json:"id"`
	FeeBps       int64     `gorm:"not null" json:"fee_bps"`
	FeeRecipient string    `gorm:"not null" json:"fee_recipient"`
	MinDuration  int64     `gorm:"not null" json:"min_duration"`
	MaxDuration  int64     `gorm:"not null" json:"max_duration"`
	Paused       bool      `gorm:"not null;default:false" json:"paused"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SupportedContract allow-lists an asset contract for listing.
type SupportedContract struct {
	Addr      string    `gorm:"primaryKey;type:varchar(128)" json:"addr"`
	CreatedAt time.Time `json:"created_at"`
}

// SettlementEntry is the audit trail of every fund movement a purchase
// produces.
type SettlementEntry struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ListingID int64           `gorm:"index;not null" json:"listing_id"`
	Kind      SettlementKind  `gorm:"type:varchar(16);not null" json:"kind"`
	Amount    decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Recipient string          `gorm:"not null" json:"recipient"`
	CreatedAt time.Time       `json:"created_at"`
}

// TableName overrides

func (Listing) TableName() string             { return "listings" }
func (TicketState) TableName() string         { return "ticket_states" }
func (VerificationRequest) TableName() string { return "verification_requests" }
func (RegistrySettings) TableName() string    { return "registry_settings" }
func (SupportedContract) TableName() string   { return "supported_contracts" }
func (SettlementEntry) TableName() string     { return "settlement_entries" }
