package issuance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the persistence boundary of the issuance ledger. Every
// state-mutating flow runs inside Transaction so that a failed validation
// never leaves partial mutation behind.
type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	// Tiers
	CreateTier(ctx context.Context, tier *Tier) error
	GetTier(ctx context.Context, id string) (*Tier, error)
	GetTierForUpdate(ctx context.Context, id string) (*Tier, error)
	ListTiers(ctx context.Context) ([]Tier, error)
	UpdateTierSupply(ctx context.Context, id string, maxSupply int64) error
	UpdateTierPrice(ctx context.Context, id string, referencePrice int64) error
	IncrementTierSold(ctx context.Context, id string, by int64) error

	// Seat claims
	SeatClaimed(ctx context.Context, section, seatNumber string) (bool, error)
	CreateSeatClaim(ctx context.Context, claim *SeatClaim) error

	// Nonce counters
	GetNonceForUpdate(ctx context.Context, recipient string) (uint64, error)
	IncrementNonce(ctx context.Context, recipient string) error

	// Allowances
	SetAllowance(ctx context.Context, owner, asset string, amount decimal.Decimal) error
	GetAllowanceForUpdate(ctx context.Context, owner, asset string) (decimal.Decimal, error)
	DeductAllowance(ctx context.Context, owner, asset string, amount decimal.Decimal) error

	// Tickets
	CreateTicket(ctx context.Context, ticket *Ticket) error
	GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error)
	GetTicketByTokenForUpdate(ctx context.Context, contract string, tokenID int64) (*Ticket, error)
	ListTicketsByOwner(ctx context.Context, owner string) ([]Ticket, error)
	UpdateTicketOwner(ctx context.Context, contract string, tokenID int64, newOwner string) error

	// Funds
	AddRetained(ctx context.Context, asset string, amount decimal.Decimal) error
	GetBalanceForUpdate(ctx context.Context, asset string) (decimal.Decimal, error)
	ZeroBalance(ctx context.Context, asset string) error
	ListBalances(ctx context.Context) ([]LedgerBalance, error)
	CreateLedgerEntries(ctx context.Context, entries []LedgerEntry) error

	// Settings
	GetSettings(ctx context.Context) (*LedgerSettings, error)
	SaveSettings(ctx context.Context, settings *LedgerSettings) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Transaction(ctx context.Context, fn func(Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repository{db: tx})
	})
}

// Tiers

func (r *repository) CreateTier(ctx context.Context, tier *Tier) error {
	return r.db.WithContext(ctx).Create(tier).Error
}

func (r *repository) GetTier(ctx context.Context, id string) (*Tier, error) {
	var tier Tier
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&tier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownTier
		}
		return nil, err
	}
	return &tier, nil
}

func (r *repository) GetTierForUpdate(ctx context.Context, id string) (*Tier, error) {
	var tier Tier
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&tier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownTier
		}
		return nil, fmt.Errorf("failed to lock tier: %w", err)
	}
	return &tier, nil
}

func (r *repository) ListTiers(ctx context.Context) ([]Tier, error) {
	var tiers []Tier
	err := r.db.WithContext(ctx).Order("id").Find(&tiers).Error
	return tiers, err
}

func (r *repository) UpdateTierSupply(ctx context.Context, id string, maxSupply int64) error {
	return r.db.WithContext(ctx).Model(&Tier{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"max_supply": maxSupply, "updated_at": time.Now()}).Error
}

func (r *repository) UpdateTierPrice(ctx context.Context, id string, referencePrice int64) error {
	return r.db.WithContext(ctx).Model(&Tier{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"reference_price": referencePrice, "updated_at": time.Now()}).Error
}

func (r *repository) IncrementTierSold(ctx context.Context, id string, by int64) error {
	return r.db.WithContext(ctx).Model(&Tier{}).
		Where("id = ?", id).
		Update("sold", gorm.Expr("sold + ?", by)).Error
}

// Seat claims

func (r *repository) SeatClaimed(ctx context.Context, section, seatNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&SeatClaim{}).
		Where("section = ? AND seat_number = ?", section, seatNumber).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateSeatClaim(ctx context.Context, claim *SeatClaim) error {
	return r.db.WithContext(ctx).Create(claim).Error
}

// Nonce counters

func (r *repository) GetNonceForUpdate(ctx context.Context, recipient string) (uint64, error) {
	// Ensure the row exists so FOR UPDATE has something to lock.
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&NonceCounter{Recipient: recipient, Nonce: 0}).Error; err != nil {
		return 0, fmt.Errorf("failed to ensure nonce row: %w", err)
	}

	var counter NonceCounter
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("recipient = ?", recipient).
		First(&counter).Error
	if err != nil {
		return 0, fmt.Errorf("failed to lock nonce: %w", err)
	}
	return counter.Nonce, nil
}

func (r *repository) IncrementNonce(ctx context.Context, recipient string) error {
	return r.db.WithContext(ctx).Model(&NonceCounter{}).
		Where("recipient = ?", recipient).
		Update("nonce", gorm.Expr("nonce + 1")).Error
}

// Allowances

func (r *repository) SetAllowance(ctx context.Context, owner, asset string, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner"}, {Name: "asset"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&Allowance{Owner: owner, Asset: asset, Amount: amount, UpdatedAt: time.Now()}).Error
}

func (r *repository) GetAllowanceForUpdate(ctx context.Context, owner, asset string) (decimal.Decimal, error) {
	var allowance Allowance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("owner = ? AND asset = ?", owner, asset).
		First(&allowance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to lock allowance: %w", err)
	}
	return allowance.Amount, nil
}

func (r *repository) DeductAllowance(ctx context.Context, owner, asset string, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Model(&Allowance{}).
		Where("owner = ? AND asset = ?", owner, asset).
		Update("amount", gorm.Expr("amount - ?", amount)).Error
}

// Tickets

func (r *repository) CreateTicket(ctx context.Context, ticket *Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *repository) GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	var ticket Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) GetTicketByTokenForUpdate(ctx context.Context, contract string, tokenID int64) (*Ticket, error) {
	var ticket Ticket
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("contract_addr = ? AND token_id = ?", contract, tokenID).
		First(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to lock ticket: %w", err)
	}
	return &ticket, nil
}

func (r *repository) ListTicketsByOwner(ctx context.Context, owner string) ([]Ticket, error) {
	var tickets []Ticket
	err := r.db.WithContext(ctx).Where("owner = ?", owner).Order("issued_at").Find(&tickets).Error
	return tickets, err
}

func (r *repository) UpdateTicketOwner(ctx context.Context, contract string, tokenID int64, newOwner string) error {
	return r.db.WithContext(ctx).Model(&Ticket{}).
		Where("contract_addr = ? AND token_id = ?", contract, tokenID).
		Update("owner", newOwner).Error
}

// Funds

func (r *repository) AddRetained(ctx context.Context, asset string, amount decimal.Decimal) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "asset"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"retained":   gorm.Expr("ledger_balances.retained + excluded.retained"),
			"updated_at": time.Now(),
		}),
	}).Create(&LedgerBalance{Asset: asset, Retained: amount, UpdatedAt: time.Now()}).Error
}

func (r *repository) GetBalanceForUpdate(ctx context.Context, asset string) (decimal.Decimal, error) {
	var balance LedgerBalance
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("asset = ?", asset).
		First(&balance).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to lock balance: %w", err)
	}
	return balance.Retained, nil
}

func (r *repository) ZeroBalance(ctx context.Context, asset string) error {
	return r.db.WithContext(ctx).Model(&LedgerBalance{}).
		Where("asset = ?", asset).
		Update("retained", decimal.Zero).Error
}

func (r *repository) ListBalances(ctx context.Context) ([]LedgerBalance, error) {
	var balances []LedgerBalance
	err := r.db.WithContext(ctx).Order("asset").Find(&balances).Error
	return balances, err
}

func (r *repository) CreateLedgerEntries(ctx context.Context, entries []LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

// Settings

func (r *repository) GetSettings(ctx context.Context) (*LedgerSettings, error) {
	var settings LedgerSettings
	err := r.db.WithContext(ctx).Where("id = 1").First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repository) SaveSettings(ctx context.Context, settings *LedgerSettings) error {
	settings.ID = 1
	return r.db.WithContext(ctx).Save(settings).Error
}
