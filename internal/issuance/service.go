package issuance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticketforge/internal/pricing"
	"ticketforge/internal/shared/config"
	"ticketforge/internal/signer"
	"ticketforge/pkg/logger"
	"ticketforge/pkg/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PriceQuoter converts a tier's reference price into a payment-asset amount.
type PriceQuoter interface {
	Quote(ctx context.Context, tierID string, referencePriceCents int64, asset string) (decimal.Decimal, error)
}

// AssetRegistry manages the payment asset / price feed registry.
type AssetRegistry interface {
	SetPaymentAssets(ctx context.Context, assets []pricing.PaymentAsset) error
	ListPaymentAssets(ctx context.Context) ([]pricing.PaymentAsset, error)
}

// VoucherVerifier checks voucher signatures against the authorized signer.
type VoucherVerifier interface {
	Verify(v signer.Voucher, signature []byte, now time.Time) (string, error)
}

// CatalogNotifier receives one-way notifications after successful issuance.
// Failures must never fail the mint.
type CatalogNotifier interface {
	TicketIssued(ctx context.Context, n CatalogNotification)
}

// CatalogNotification is the record the external event catalog stores
// against its own event row.
type CatalogNotification struct {
	ContextID    string `json:"context_id"`
	ContractAddr string `json:"contract_addr"`
	TokenID      int64  `json:"token_id"`
	Recipient    string `json:"recipient"`
	TierID       string `json:"tier_id"`
	Section      string `json:"section"`
	SeatNumber   string `json:"seat_number"`
}

// PaymentRequest is a voucher submission with its payment context.
type PaymentRequest struct {
	Voucher    signer.Voucher
	Signature  []byte
	Payer      string
	AmountSent decimal.Decimal // native flow only
}

// MintResult reports what a successful issuance did with seats and funds.
type MintResult struct {
	Tickets  []Ticket        `json:"tickets"`
	Asset    string          `json:"asset"`
	Required decimal.Decimal `json:"required"`
	Fee      decimal.Decimal `json:"fee"`
	Net      decimal.Decimal `json:"net"`
	Refund   decimal.Decimal `json:"refund"`
}

// Withdrawal reports a balance withdrawal.
type Withdrawal struct {
	Asset  string          `json:"asset"`
	Amount decimal.Decimal `json:"amount"`
	To     string          `json:"to"`
}

// Service is the issuance ledger: it turns verified vouchers into seat
// claims and tickets while enforcing supply caps and fee accounting.
type Service interface {
	PayWithNative(ctx context.Context, req PaymentRequest) (*MintResult, error)
	PayWithAsset(ctx context.Context, asset string, req PaymentRequest) (*MintResult, error)
	PayBatchWithNative(ctx context.Context, req PaymentRequest) (*MintResult, error)
	PayBatchWithAsset(ctx context.Context, asset string, req PaymentRequest) (*MintResult, error)

	AdminMint(ctx context.Context, recipient string, seats []signer.Seat) (*MintResult, error)
	SetTierSupplies(ctx context.Context, tierIDs []string, supplies []int64) error
	SetTierPrices(ctx context.Context, tierIDs []string, prices []int64) error
	SetPaymentAssets(ctx context.Context, assets, feeds []string, exponents []int32) error
	CreateTier(ctx context.Context, tier Tier) error
	WithdrawNative(ctx context.Context, to string) (*Withdrawal, error)
	WithdrawAsset(ctx context.Context, to, asset string) (*Withdrawal, error)
	Pause(ctx context.Context) error
	Unpause(ctx context.Context) error

	SetAllowance(ctx context.Context, owner, asset string, amount decimal.Decimal) error
	TransferTicket(ctx context.Context, contract string, tokenID int64, from, to string) error

	GetTier(ctx context.Context, id string) (*Tier, error)
	ListTiers(ctx context.Context) ([]Tier, error)
	GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error)
	ListTicketsByOwner(ctx context.Context, owner string) ([]Ticket, error)
	ListBalances(ctx context.Context) ([]LedgerBalance, error)
	CurrentNonce(ctx context.Context, recipient string) (uint64, error)

	SetCatalogNotifier(n CatalogNotifier)
}

type service struct {
	repo      Repository
	authority VoucherVerifier
	quoter    PriceQuoter
	registry  AssetRegistry
	notifier  CatalogNotifier
	cfg       *config.Config
	now       func() time.Time
}

func NewService(repo Repository, authority VoucherVerifier, quoter PriceQuoter, registry AssetRegistry, cfg *config.Config) Service {
	return &service{
		repo:      repo,
		authority: authority,
		quoter:    quoter,
		registry:  registry,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SetCatalogNotifier wires the one-way catalog notification producer.
func (s *service) SetCatalogNotifier(n CatalogNotifier) {
	s.notifier = n
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
		return fmt.Errorf("failed to load ledger settings: %w", err)
	}
	return repo.SaveSettings(ctx, &LedgerSettings{
		FeeRateBps: cfg.Issuance.FeeRateBps,
		Treasury:   cfg.Issuance.Treasury,
	})
}

// PAYMENT FLOWS

func (s *service) PayWithNative(ctx context.Context, req PaymentRequest) (*MintResult, error) {
	if len(req.Voucher.Seats) != 1 {
		return nil, ErrLengthMismatch
	}
	return s.pay(ctx, s.cfg.Issuance.NativeAsset, true, req)
}

func (s *service) PayWithAsset(ctx context.Context, asset string, req PaymentRequest) (*MintResult, error) {
	if len(req.Voucher.Seats) != 1 {
		return nil, ErrLengthMismatch
	}
	return s.pay(ctx, asset, false, req)
}

func (s *service) PayBatchWithNative(ctx context.Context, req PaymentRequest) (*MintResult, error) {
	return s.pay(ctx, s.cfg.Issuance.NativeAsset, true, req)
}

func (s *service) PayBatchWithAsset(ctx context.Context, asset string, req PaymentRequest) (*MintResult, error) {
	return s.pay(ctx, asset, false, req)
}

// pay is the shared voucher consumption path. Signature verification and
// quoting happen up front; every check against mutable state and every
// mutation happens inside one transaction, so a failure on any seat leaves
// zero claims, zero funds moved and the nonce unchanged.
func (s *service) pay(ctx context.Context, asset string, native bool, req PaymentRequest) (*MintResult, error) {
	voucher := req.Voucher
	if len(voucher.Seats) == 0 {
		return nil, ErrEmptySeatList
	}

	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger settings: %w", err)
	}
	if settings.Paused {
		return nil, ErrLedgerPaused
	}

	if _, err := s.authority.Verify(voucher, req.Signature, s.now()); err != nil {
		metrics.IssuanceFailed("signature")
		return nil, err
	}

	// Sum of independent per-seat quotes, computed in request order.
	required := decimal.Zero
	for _, seat := range voucher.Seats {
		tier, err := s.repo.GetTier(ctx, seat.TierID)
		if err != nil {
			return nil, err
		}
		quote, err := s.quoter.Quote(ctx, tier.ID, tier.ReferencePrice, asset)
		if err != nil {
			return nil, err
		}
		required = required.Add(quote)
	}

	refund := decimal.Zero
	if native {
		if req.AmountSent.LessThan(required) {
			metrics.IssuanceFailed("underpayment")
			return nil, ErrInsufficientAmount
		}
		refund = req.AmountSent.Sub(required)
	}

	fee, net := splitFee(required, settings.FeeRateBps)

	var tickets []Ticket
	err = s.repo.Transaction(ctx, func(tx Repository) error {
		nonce, err := tx.GetNonceForUpdate(ctx, voucher.Recipient)
		if err != nil {
			return err
		}
		if voucher.Nonce != nonce {
			metrics.IssuanceFailed("nonce")
			return ErrInvalidNonce
		}

		if err := validateSeats(ctx, tx, voucher.Seats); err != nil {
			return err
		}

		if !native {
			allowance, err := tx.GetAllowanceForUpdate(ctx, req.Payer, asset)
			if err != nil {
				return err
			}
			if allowance.LessThan(required) {
				metrics.IssuanceFailed("allowance")
				return ErrInsufficientAmount
			}
			if err := tx.DeductAllowance(ctx, req.Payer, asset, required); err != nil {
				return err
			}
		}

		tickets, err = s.mintSeats(ctx, tx, voucher.Recipient, voucher.Seats)
		if err != nil {
			return err
		}

		if err := tx.IncrementNonce(ctx, voucher.Recipient); err != nil {
			return err
		}

		return s.settleFunds(ctx, tx, settings, asset, fee, net, refund, req.Payer)
	})
	if err != nil {
		return nil, err
	}

	s.notifyIssued(ctx, tickets)
	for _, t := range tickets {
		metrics.TicketIssued(t.TierID, asset, "paid")
		logger.GetDefault().LogTicketIssued(ctx, t.ID.String(), t.Owner, t.TierID)
	}

	return &MintResult{
		Tickets:  tickets,
		Asset:    asset,
		Required: required,
		Fee:      fee,
		Net:      net,
		Refund:   refund,
	}, nil
}

// AdminMint bypasses signature, nonce and payment checks but keeps the
// seat-uniqueness and supply-cap checks intact.
func (s *service) AdminMint(ctx context.Context, recipient string, seats []signer.Seat) (*MintResult, error) {
	if len(seats) == 0 {
		return nil, ErrEmptySeatList
	}

	var tickets []Ticket
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		if err := validateSeats(ctx, tx, seats); err != nil {
			return err
		}
		var err error
		tickets, err = s.mintSeats(ctx, tx, recipient, seats)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyIssued(ctx, tickets)
	for _, t := range tickets {
		metrics.TicketIssued(t.TierID, "", "admin")
		logger.GetDefault().LogTicketIssued(ctx, t.ID.String(), t.Owner, t.TierID)
	}

	return &MintResult{
		Tickets:  tickets,
		Required: decimal.Zero,
		Fee:      decimal.Zero,
		Net:      decimal.Zero,
		Refund:   decimal.Zero,
	}, nil
}

// validateSeats checks every seat in request order against claims and
// supply caps; the first conflicting seat determines the failure.
func validateSeats(ctx context.Context, tx Repository, seats []signer.Seat) error {
	pendingByTier := make(map[string]int64)
	seenInBatch := make(map[[2]string]bool)

	for _, seat := range seats {
		tier, err := tx.GetTierForUpdate(ctx, seat.TierID)
		if err != nil {
			return err
		}

		if tier.Sold+pendingByTier[tier.ID]+1 > tier.MaxSupply {
			return ErrExceedsMaxSupply
		}
		pendingByTier[tier.ID]++

		if tier.Numbered {
			key := [2]string{seat.Section, seat.SeatNumber}
			if seenInBatch[key] {
				return ErrSeatAlreadyClaimed
			}
			seenInBatch[key] = true

			claimed, err := tx.SeatClaimed(ctx, seat.Section, seat.SeatNumber)
			if err != nil {
				return err
			}
			if claimed {
				return ErrSeatAlreadyClaimed
			}
		}
	}
	return nil
}

// mintSeats claims and mints already-validated seats.
func (s *service) mintSeats(ctx context.Context, tx Repository, recipient string, seats []signer.Seat) ([]Ticket, error) {
	tickets := make([]Ticket, 0, len(seats))
	for _, seat := range seats {
		tier, err := tx.GetTier(ctx, seat.TierID)
		if err != nil {
			return nil, err
		}

		if tier.Numbered {
			claim := &SeatClaim{
				ID:         uuid.New(),
				Section:    seat.Section,
				SeatNumber: seat.SeatNumber,
				TierID:     seat.TierID,
			}
			if err := tx.CreateSeatClaim(ctx, claim); err != nil {
				return nil, err
			}
		}

		if err := tx.IncrementTierSold(ctx, seat.TierID, 1); err != nil {
			return nil, err
		}

		ticket := Ticket{
			ID:           uuid.New(),
			ContractAddr: s.cfg.Issuance.TicketContract,
			Owner:        recipient,
			Section:      seat.Section,
			SeatNumber:   seat.SeatNumber,
			TierID:       seat.TierID,
			IssuedAt:     s.now(),
		}
		if err := tx.CreateTicket(ctx, &ticket); err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// settleFunds records the fee split inside the same transaction that
// claimed the seats.
func (s *service) settleFunds(ctx context.Context, tx Repository, settings *LedgerSettings, asset string, fee, net, refund decimal.Decimal, payer string) error {
	ref := uuid.New().String()
	entries := []LedgerEntry{
		{ID: uuid.New(), Kind: EntryFee, Asset: asset, Amount: fee, Counterparty: settings.Treasury, Ref: ref},
		{ID: uuid.New(), Kind: EntryNet, Asset: asset, Amount: net, Ref: ref},
	}
	if refund.IsPositive() {
		entries = append(entries, LedgerEntry{
			ID: uuid.New(), Kind: EntryRefund, Asset: asset, Amount: refund, Counterparty: payer, Ref: ref,
		})
	}
	if err := tx.CreateLedgerEntries(ctx, entries); err != nil {
		return err
	}
	return tx.AddRetained(ctx, asset, net)
}

func (s *service) notifyIssued(ctx context.Context, tickets []Ticket) {
	if s.notifier == nil {
		return
	}
	for _, t := range tickets {
		s.notifier.TicketIssued(ctx, CatalogNotification{
			ContextID:    s.cfg.Signer.ContextID,
			ContractAddr: t.ContractAddr,
			TokenID:      t.TokenID,
			Recipient:    t.Owner,
			TierID:       t.TierID,
			Section:      t.Section,
			SeatNumber:   t.SeatNumber,
		})
	}
}

// ADMINISTRATIVE OPERATIONS

func (s *service) SetTierSupplies(ctx context.Context, tierIDs []string, supplies []int64) error {
	if len(tierIDs) != len(supplies) {
		return ErrLengthMismatch
	}
	return s.repo.Transaction(ctx, func(tx Repository) error {
		for i, id := range tierIDs {
			tier, err := tx.GetTierForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if supplies[i] < tier.Sold {
				return ErrInvalidSupply
			}
			if err := tx.UpdateTierSupply(ctx, id, supplies[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) SetTierPrices(ctx context.Context, tierIDs []string, prices []int64) error {
	if len(tierIDs) != len(prices) {
		return ErrLengthMismatch
	}
	return s.repo.Transaction(ctx, func(tx Repository) error {
		for i, id := range tierIDs {
			if _, err := tx.GetTierForUpdate(ctx, id); err != nil {
				return err
			}
			if err := tx.UpdateTierPrice(ctx, id, prices[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *service) SetPaymentAssets(ctx context.Context, assets, feeds []string, exponents []int32) error {
	if len(assets) != len(feeds) || len(assets) != len(exponents) {
		return ErrLengthMismatch
	}
	rows := make([]pricing.PaymentAsset, len(assets))
	for i := range assets {
		rows[i] = pricing.PaymentAsset{Asset: assets[i], FeedURL: feeds[i], Exponent: exponents[i]}
	}
	return s.registry.SetPaymentAssets(ctx, rows)
}

func (s *service) CreateTier(ctx context.Context, tier Tier) error {
	if tier.ID == "" || tier.MaxSupply <= 0 {
		return ErrUnknownTier
	}
	tier.Sold = 0
	return s.repo.CreateTier(ctx, &tier)
}

func (s *service) WithdrawNative(ctx context.Context, to string) (*Withdrawal, error) {
	return s.withdraw(ctx, to, s.cfg.Issuance.NativeAsset)
}

func (s *service) WithdrawAsset(ctx context.Context, to, asset string) (*Withdrawal, error) {
	return s.withdraw(ctx, to, asset)
}

func (s *service) withdraw(ctx context.Context, to, asset string) (*Withdrawal, error) {
	var amount decimal.Decimal
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		var err error
		amount, err = tx.GetBalanceForUpdate(ctx, asset)
		if err != nil {
			return err
		}
		if amount.IsZero() {
			return nil
		}
		if err := tx.CreateLedgerEntries(ctx, []LedgerEntry{{
			ID: uuid.New(), Kind: EntryWithdrawal, Asset: asset, Amount: amount, Counterparty: to,
		}}); err != nil {
			return err
		}
		return tx.ZeroBalance(ctx, asset)
	})
	if err != nil {
		return nil, err
	}
	return &Withdrawal{Asset: asset, Amount: amount, To: to}, nil
}

func (s *service) Pause(ctx context.Context) error {
	return s.setPaused(ctx, true)
}

func (s *service) Unpause(ctx context.Context) error {
	return s.setPaused(ctx, false)
}

func (s *service) setPaused(ctx context.Context, paused bool) error {
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return err
	}
	settings.Paused = paused
	return s.repo.SaveSettings(ctx, settings)
}

func (s *service) SetAllowance(ctx context.Context, owner, asset string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInsufficientAmount
	}
	return s.repo.SetAllowance(ctx, owner, asset, amount)
}

// TransferTicket moves ownership; this is the external asset-ownership
// transfer the listing registry settles purchases through.
func (s *service) TransferTicket(ctx context.Context, contract string, tokenID int64, from, to string) error {
	return s.repo.Transaction(ctx, func(tx Repository) error {
		ticket, err := tx.GetTicketByTokenForUpdate(ctx, contract, tokenID)
		if err != nil {
			return err
		}
		if ticket.Owner != from {
			return ErrNotTicketOwner
		}
		return tx.UpdateTicketOwner(ctx, contract, tokenID, to)
	})
}

// QUERIES

func (s *service) GetTier(ctx context.Context, id string) (*Tier, error) {
	return s.repo.GetTier(ctx, id)
}

func (s *service) ListTiers(ctx context.Context) ([]Tier, error) {
	return s.repo.ListTiers(ctx)
}

func (s *service) GetTicket(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	return s.repo.GetTicket(ctx, id)
}

func (s *service) ListTicketsByOwner(ctx context.Context, owner string) ([]Ticket, error) {
	return s.repo.ListTicketsByOwner(ctx, owner)
}

func (s *service) ListBalances(ctx context.Context) ([]LedgerBalance, error) {
	return s.repo.ListBalances(ctx)
}

func (s *service) CurrentNonce(ctx context.Context, recipient string) (uint64, error) {
	var nonce uint64
	err := s.repo.Transaction(ctx, func(tx Repository) error {
		var err error
		nonce, err = tx.GetNonceForUpdate(ctx, recipient)
		return err
	})
	return nonce, err
}

// splitFee divides an amount into fee and net with no rounding loss:
// the fee is truncated to the amount's own precision and the net is the
// exact remainder.
func splitFee(required decimal.Decimal, feeRateBps int64) (fee, net decimal.Decimal) {
	places := -required.Exponent()
	if places < 0 {
		places = 0
	}
	fee = required.
		Mul(decimal.NewFromInt(feeRateBps)).
		Div(decimal.NewFromInt(10000)).
		RoundDown(places)
	net = required.Sub(fee)
	return fee, net
}
