package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the persistence boundary of the listing registry. Purchase
// and verification flows run inside Transaction so a failure on any step
// leaves no partial state.
type Repository interface {
	Transaction(ctx context.Context, fn func(Repository) error) error

	// Listings
	CreateListing(ctx context.Context, listing *Listing) error
	GetListing(ctx context.Context, id int64) (*Listing, error)
	GetListingForUpdate(ctx context.Context, id int64) (*Listing, error)
	ListActiveListings(ctx context.Context) ([]Listing, error)
	SetListingState(ctx context.Context, id int64, active, pendingVerification bool) error

	// Ticket states
	GetTicketStatus(ctx context.Context, ticketID uuid.UUID) (TicketStatus, error)
	SaveTicketState(ctx context.Context, state *TicketState) error

	// Verification requests (write-once)
	CreateVerificationRequest(ctx context.Context, req *VerificationRequest) error
	GetVerificationRequest(ctx context.Context, requestID uuid.UUID) (*VerificationRequest, error)

	// Supported contracts
	IsSupportedContract(ctx context.Context, addr string) (bool, error)
	AddSupportedContract(ctx context.Context, addr string) error
	RemoveSupportedContract(ctx context.Context, addr string) error
	ListSupportedContracts(ctx context.Context) ([]SupportedContract, error)

	// Settlement
	CreateSettlementEntries(ctx context.Context, entries []SettlementEntry) error

	// Settings
	GetSettings(ctx context.Context) (*RegistrySettings, error)
	SaveSettings(ctx context.Context, settings *RegistrySettings) error
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

// Listings

func (r *repository) CreateListing(ctx context.Context, listing *Listing) error {
	return r.db.WithContext(ctx).Create(listing).Error
}

func (r *repository) GetListing(ctx context.Context, id int64) (*Listing, error) {
	var listing Listing
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, err
	}
	return &listing, nil
}

func (r *repository) GetListingForUpdate(ctx context.Context, id int64) (*Listing, error) {
	var listing Listing
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to lock listing: %w", err)
	}
	return &listing, nil
}

func (r *repository) ListActiveListings(ctx context.Context) ([]Listing, error) {
	var listings []Listing
	err := r.db.WithContext(ctx).Where("active = true").Order("id").Find(&listings).Error
	return listings, err
}

func (r *repository) SetListingState(ctx context.Context, id int64, active, pendingVerification bool) error {
	return r.db.WithContext(ctx).Model(&Listing{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"active":               active,
			"pending_verification": pendingVerification,
			"updated_at":           time.Now(),
		}).Error
}

// Ticket states

func (r *repository) GetTicketStatus(ctx context.Context, ticketID uuid.UUID) (TicketStatus, error) {
	var state TicketState
	err := r.db.WithContext(ctx).Where("ticket_id = ?", ticketID).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StatusNone, nil
		}
		return StatusNone, err
	}
	return state.Status, nil
}

func (r *repository) SaveTicketState(ctx context.Context, state *TicketState) error {
	state.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(state).Error
}

// Verification requests

func (r *repository) CreateVerificationRequest(ctx context.Context, req *VerificationRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *repository) GetVerificationRequest(ctx context.Context, requestID uuid.UUID) (*VerificationRequest, error) {
	var req VerificationRequest
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnexpectedRequestID
		}
		return nil, err
	}
	return &req, nil
}

// Supported contracts

func (r *repository) IsSupportedContract(ctx context.Context, addr string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&SupportedContract{}).
		Where("addr = ?", addr).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) AddSupportedContract(ctx context.Context, addr string) error {
	return r.db.WithContext(ctx).Save(&SupportedContract{Addr: addr}).Error
}

func (r *repository) RemoveSupportedContract(ctx context.Context, addr string) error {
	return r.db.WithContext(ctx).Where("addr = ?", addr).Delete(&SupportedContract{}).Error
}

func (r *repository) ListSupportedContracts(ctx context.Context) ([]SupportedContract, error) {
	var contracts []SupportedContract
	err := r.db.WithContext(ctx).Order("addr").Find(&contracts).Error
	return contracts, err
}

// Settlement

func (r *repository) CreateSettlementEntries(ctx context.Context, entries []SettlementEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&entries).Error
}

// Settings

func (r *repository) GetSettings(ctx context.Context) (*RegistrySettings, error) {
	var settings RegistrySettings
	err := r.db.WithContext(ctx).Where("id = 1").First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *repository) SaveSettings(ctx context.Context, settings *RegistrySettings) error {
	settings.ID = 1
	return r.db.WithContext(ctx).Save(settings).Error
}
