package listings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketforge/internal/shared/config"
	"ticketforge/pkg/logger"
	"ticketforge/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AssetTransferor moves asset ownership during settlement. The issuance
// ledger satisfies this for its own ticket contract.
type AssetTransferor interface {
	TransferTicket(ctx context.Context, contract string, tokenID int64, from, to string) error
}

// VerificationDispatcher sends a ticket to the external oracle for
// validity and usage checks.
type VerificationDispatcher interface {
	RequestVerification(ctx context.Context, requestID, ticketID uuid.UUID) error
}

// CreateParams is the validated input of CreateListing.
type CreateParams struct {
	AssetContract string
	TokenID       int64
	Seller        string
	Price         decimal.Decimal
	Duration      int64
	TicketID      *uuid.UUID
}

// PurchaseResult reports how a sale was settled.
type PurchaseResult struct {
	Listing   *Listing        `json:"listing"`
	Buyer     string          `json:"buyer"`
	Price     decimal.Decimal `json:"price"`
	Fee       decimal.Decimal `json:"fee"`
	SellerNet decimal.Decimal `json:"seller_net"`
	Refund    decimal.Decimal `json:"refund"`
}

// Service is the listing registry: it tracks resale offers, gates tracked
// tickets behind asynchronous verification and settles purchases.
type Service interface {
	CreateListing(ctx context.Context, p CreateParams) (*Listing, error)
	OnVerificationResult(ctx context.Context, requestID uuid.UUID, success bool, payload int64) error
	PurchaseListing(ctx context.Context, id int64, buyer string, sent decimal.Decimal) (*PurchaseResult, error)
	CancelListing(ctx context.Context, id int64, caller string) error
	EmergencyCancelListing(ctx context.Context, id int64) error

	SetFeeBps(ctx context.Context, bps int64) error
	SetFeeRecipient(ctx context.Context, recipient string) error
	SetDurations(ctx context.Context, min, max int64) error
	AddSupportedContract(ctx context.Context, addr string) error
	RemoveSupportedContract(ctx context.Context, addr string) error
	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error

	GetListing(ctx context.Context, id int64) (*Listing, error)
	ListActiveListings(ctx context.Context) ([]Listing, error)
	TicketStatus(ctx context.Context, ticketID uuid.UUID) (TicketStatus, error)
	ListSupportedContracts(ctx context.Context) ([]SupportedContract, error)
}

// maxFeeBps caps the platform fee at 10%.
const maxFeeBps = 1000

type service struct {
	repo       Repository
	transferor AssetTransferor
	oracle     VerificationDispatcher
	now        func() time.Time
}

func NewService(repo Repository, transferor AssetTransferor, oracle VerificationDispatcher) Service {
	return &service{
		repo:       repo,
		transferor: transferor,
		oracle:     oracle,
		now:        time.Now,
	}
}

// EnsureSettings seeds the singleton settings row from config on first run.
// Only a missing row triggers the seed; any other read error is surfaced so
// a transient failure cannot overwrite tuned settings with defaults.
func EnsureSettings(ctx context.Context, repo Repository, cfg *config.Config) error {
	_, err := repo.GetSettings(ctx)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to load registry settings: %w", err)
	}
	return repo.SaveSettings(ctx, &RegistrySettings{
		FeeBps:       cfg.Listings.FeeBps,
		FeeRecipient: cfg.Listings.FeeRecipient,
		MinDuration:  int64(cfg.Listings.MinDuration.Seconds()),
		MaxDuration:  int64(cfg.Listings.MaxDuration.Seconds()),
	})
}

// CreateListing validates the offer and either activates it directly or
// parks it pending oracle verification. The verification request row and
// the dispatch happen inside the listing transaction, so a dispatch
// failure leaves no orphaned pending listing.
func (s *service) CreateListing(ctx context.Context, p CreateParams) (*Listing, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry settings: %w", err)
	}
	if settings.Paused {
		return nil, ErrRegistryPaused
	}
	if !p.Price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if p.Duration < settings.MinDuration || p.Duration > settings.MaxDuration {
		return nil, ErrInvalidDuration
	}

	supported, err := s.repo.IsSupportedContract(ctx, p.AssetContract)
	if err != nil {
		return nil, err
	}
	if !supported {
		return nil, ErrUnsupportedContract
	}

	listing := &Listing{
		AssetContract: p.AssetContract,
		TokenID:       p.TokenID,
		Seller:        p.Seller,
		Price:         p.Price,
		Duration:      p.Duration,
		TicketID:      p.TicketID,
		Active:        p.TicketID == nil,
		CreatedAt:     s.now(),
	}
	listing.PendingVerification = p.TicketID != nil

	err = s.repo.Transaction(ctx, func(tx Repository) error {
		if p.TicketID != nil {
			status, err := tx.GetTicketStatus(ctx, *p.TicketID)
			if err != nil {
				return err
			}
			if status == StatusPending || status == StatusActive {
				return ErrTicketAlreadyListed
			}
		}

		if err := tx.CreateListing(ctx, listing); err != nil {
			return err
		}

		if p.TicketID == nil {
			return nil
		}

		requestID := uuid.New()
		if err := tx.CreateVerificationRequest(ctx, &VerificationRequest{
			RequestID: requestID,
			ListingID: listing.ID,
			CreatedAt: s.now(),
		}); err != nil {
			return err
		}
		if err := tx.SaveTicketState(ctx, &TicketState{
			TicketID:  *p.TicketID,
			Status:    StatusPending,
			ListingID: listing.ID,
		}); err != nil {
			return err
		}
		return s.oracle.RequestVerification(ctx, requestID, *p.TicketID)
	})
	if err != nil {
		return nil, err
	}

	metrics.ListingCreated(listing.PendingVerification)
	logger.GetDefault().LogListingCreated(ctx, listing.ID, listing.Seller, listing.PendingVerification)
	return listing, nil
}

// OnVerificationResult resolves a pending listing. A result for a listing
// that is no longer pending is a no-op, so duplicate or late oracle
// deliveries cannot reopen a terminal state. A nonzero payload means the
// ticket was already used.
func (s *service) OnVerificationResult(ctx context.Context, requestID uuid.UUID, success bool, payload int64) error {
	used := payload != 0

	err := s.repo.Transaction(ctx, func(tx Repository) error {
		req, err := tx.GetVerificationRequest(ctx, requestID)
		if err != nil {
			return err
		}
		listing, err := tx.GetListingForUpdate(ctx, req.ListingID)
		if err != nil {
			return err
		}
		if !listing.PendingVerification {
			return nil
		}

		approved := success && !used
		status := StatusDelisted
		if approved {
			status = StatusActive
		}
		if err := tx.SetListingState(ctx, listing.ID, approved, false); err != nil {
			return err
		}
		if listing.TicketID != nil {
			if err := tx.SaveTicketState(ctx, &TicketState{
				TicketID:  *listing.TicketID,
				Status:    status,
				ListingID: listing.ID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	outcome := "rejected"
	if success && !used {
		outcome = "approved"
	}
	metrics.VerificationResult(outcome)
	logger.GetDefault().LogVerificationResult(ctx, requestID.String(), success, used)
	return nil
}

// PurchaseListing settles a sale. The payment split, the settlement
// entries, the state flip and the ownership transfer happen in one
// transaction, with the transfer ordered last; a failure at any step
// leaves both the listing and the ticket ownership untouched.
func (s *service) PurchaseListing(ctx context.Context, id int64, buyer string, sent decimal.Decimal) (*PurchaseResult, error) {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry settings: %w", err)
	}
	if settings.Paused {
		return nil, ErrRegistryPaused
	}

	var result *PurchaseResult
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		listing, err := tx.GetListingForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !listing.Active {
			return ErrListingNotActive
		}
		if s.now().After(listing.ExpiresAt()) {
			return ErrListingExpired
		}
		if sent.LessThan(listing.Price) {
			return ErrInsufficientPayment
		}

		fee, sellerNet := splitPrice(listing.Price, settings.FeeBps)
		refund := sent.Sub(listing.Price)

		entries := []SettlementEntry{
			{ID: uuid.New(), ListingID: id, Kind: SettlementPlatformFee, Amount: fee, Recipient: settings.FeeRecipient},
			{ID: uuid.New(), ListingID: id, Kind: SettlementSellerNet, Amount: sellerNet, Recipient: listing.Seller},
		}
		if refund.IsPositive() {
			entries = append(entries, SettlementEntry{
				ID: uuid.New(), ListingID: id, Kind: SettlementRefund, Amount: refund, Recipient: buyer,
			})
		}
		if err := tx.CreateSettlementEntries(ctx, entries); err != nil {
			return err
		}

		if err := tx.SetListingState(ctx, id, false, false); err != nil {
			return err
		}
		if listing.TicketID != nil {
			if err := tx.SaveTicketState(ctx, &TicketState{
				TicketID:  *listing.TicketID,
				Status:    StatusSold,
				ListingID: id,
			}); err != nil {
				return err
			}
		}

		result = &PurchaseResult{
			Listing:   listing,
			Buyer:     buyer,
			Price:     listing.Price,
			Fee:       fee,
			SellerNet: sellerNet,
			Refund:    refund,
		}

		// The transferor commits in its own transaction, so it must be the
		// last step: every listing-side write above still rolls back if the
		// transfer fails, and nothing here can fail after it succeeds.
		if err := s.transferor.TransferTicket(ctx, listing.AssetContract, listing.TokenID, listing.Seller, buyer); err != nil {
			return fmt.Errorf("failed to transfer asset: %w", err)
		}
		return nil
	})
	if err != nil {
		metrics.ListingSettled("failed")
		return nil, err
	}

	metrics.ListingSettled("sold")
	logger.GetDefault().LogListingSold(ctx, id, buyer)
	return result, nil
}

// CancelListing delists a pending or active listing. Cancellation stays
// available while the registry is paused.
func (s *service) CancelListing(ctx context.Context, id int64, caller string) error {
	return s.cancel(ctx, id, &caller)
}

// EmergencyCancelListing delists regardless of who the seller is.
func (s *service) EmergencyCancelListing(ctx context.Context, id int64) error {
	return s.cancel(ctx, id, nil)
}

func (s *service) cancel(ctx context.Context, id int64, caller *string) error {
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		listing, err := tx.GetListingForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !listing.Active && !listing.PendingVerification {
			return ErrListingNotActive
		}
		if caller != nil && *caller != listing.Seller {
			return ErrNotSeller
		}

		if err := tx.SetListingState(ctx, id, false, false); err != nil {
			return err
		}
		if listing.TicketID != nil {
			return tx.SaveTicketState(ctx, &TicketState{
				TicketID:  *listing.TicketID,
				Status:    StatusDelisted,
				ListingID: id,
			})
		}
		return nil
	})
	if err != nil {
		return err
	}
	metrics.ListingSettled("cancelled")
	return nil
}

// ADMINISTRATIVE OPERATIONS

func (s *service) SetFeeBps(ctx context.Context, bps int64) error {
	if bps < 0 || bps > maxFeeBps {
		return ErrInvalidFeePercent
	}
	return s.updateSettings(ctx, func(settings *RegistrySettings) {
		settings.FeeBps = bps
	})
}

func (s *service) SetFeeRecipient(ctx context.Context, recipient string) error {
	if recipient == "" {
		return ErrZeroAddress
	}
	return s.updateSettings(ctx, func(settings *RegistrySettings) {
		settings.FeeRecipient = recipient
	})
}

func (s *service) SetDurations(ctx context.Context, min, max int64) error {
	if min <= 0 || max <= min {
		return ErrInvalidDuration
	}
	return s.updateSettings(ctx, func(settings *RegistrySettings) {
		settings.MinDuration = min
		settings.MaxDuration = max
	})
}

func (s *service) AddSupportedContract(ctx context.Context, addr string) error {
	if addr == "" {
		return ErrZeroAddress
	}
	return s.repo.AddSupportedContract(ctx, addr)
}

func (s *service) RemoveSupportedContract(ctx context.Context, addr string) error {
	return s.repo.RemoveSupportedContract(ctx, addr)
}

func (s *service) Pause(ctx context.Context) error {
	return s.updateSettings(ctx, func(settings *RegistrySettings) {
		settings.Paused = true
	})
}

func (s *service) Unpause(ctx context.Context) error {
	return s.updateSettings(ctx, func(settings *RegistrySettings) {
		settings.Paused = false
	})
}

func (s *service) updateSettings(ctx context.Context, mutate func(*RegistrySettings)) error {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return err
	}
	mutate(settings)
	return s.repo.SaveSettings(ctx, settings)
}

// QUERIES

func (s *service) GetListing(ctx context.Context, id int64) (*Listing, error) {
	return s.repo.GetListing(ctx, id)
}

func (s *service) ListActiveListings(ctx context.Context) ([]Listing, error) {
	return s.repo.ListActiveListings(ctx)
}

func (s *service) TicketStatus(ctx context.Context, ticketID uuid.UUID) (TicketStatus, error) {
	return s.repo.GetTicketStatus(ctx, ticketID)
}

func (s *service) ListSupportedContracts(ctx context.Context) ([]SupportedContract, error) {
	return s.repo.ListSupportedContracts(ctx)
}

// splitPrice divides the sale price into platform fee and seller proceeds
// with no rounding loss: the fee is truncated to the price's own precision
// and the seller amount is the exact remainder.
func splitPrice(price decimal.Decimal, feeBps int64) (fee, sellerNet decimal.Decimal) {
	places := -price.Exponent()
	if places < 0 {
		places = 0
	}
	fee = price.
		Mul(decimal.NewFromInt(feeBps)).
		Div(decimal.NewFromInt(10000)).
		RoundDown(places)
	sellerNet = price.Sub(fee)
	return fee, sellerNet
}
