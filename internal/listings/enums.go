package listings

// TicketStatus tracks a ticket through the registry lifecycle.
type TicketStatus string

const (
	StatusNone     TicketStatus = "NONE"
	StatusPending  TicketStatus = "PENDING"
	StatusActive   TicketStatus = "ACTIVE"
	StatusDelisted TicketStatus = "DELISTED"
	StatusSold     TicketStatus = "SOLD"
)

// IsTerminal reports whether the status can never change again.
func (s TicketStatus) IsTerminal() bool {
	return s == StatusDelisted || s == StatusSold
}

// SettlementKind labels a settlement ledger row.
type SettlementKind string

const (
	SettlementPlatformFee SettlementKind = "PLATFORM_FEE"
	SettlementSellerNet   SettlementKind = "SELLER_NET"
	SettlementRefund      SettlementKind = "REFUND"
)
