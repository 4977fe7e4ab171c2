package database

import (
	"ticketforge/internal/issuance"
	"ticketforge/internal/listings"
	"ticketforge/internal/pricing"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&pricing.PaymentAsset{},

		&issuance.Tier{},
		&issuance.SeatClaim{},
		&issuance.Ticket{},
		&issuance.NonceCounter{},
		&issuance.Allowance{},
		&issuance.LedgerBalance{},
		&issuance.LedgerEntry{},
		&issuance.LedgerSettings{},

		&listings.Listing{},
		&listings.TicketState{},
		&listings.VerificationRequest{},
		&listings.RegistrySettings{},
		&listings.SupportedContract{},
		&listings.SettlementEntry{},
	)
}
