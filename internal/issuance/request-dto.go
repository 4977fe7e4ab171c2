package issuance

import (
	"encoding/hex"
	"fmt"

	"ticketforge/internal/signer"

	"github.com/shopspring/decimal"
)

// SeatRequest identifies a seat in a voucher or admin mint.
type SeatRequest struct {
	Section    string `json:"section" binding:"required"`
	SeatNumber string `json:"seat_number" binding:"required"`
	TierID     string `json:"tier_id" binding:"required"`
}

// VoucherRequest is the wire form of a signed voucher.
type VoucherRequest struct {
	Recipient string        `json:"recipient" binding:"required"`
	Seats     []SeatRequest `json:"seats" binding:"required,min=1,dive"`
	Nonce     uint64        `json:"nonce"`
	Deadline  int64         `json:"deadline" binding:"required"`
	Signature string        `json:"signature" binding:"required"` // hex r||s
}

// ToVoucher converts the wire form, stamping the server-side context id.
func (v VoucherRequest) ToVoucher(contextID string) (signer.Voucher, []byte, error) {
	sig, err := hex.DecodeString(v.Signature)
	if err != nil {
		return signer.Voucher{}, nil, fmt.Errorf("malformed signature hex: %w", err)
	}
	seats := make([]signer.Seat, len(v.Seats))
	for i, s := range v.Seats {
		seats[i] = signer.Seat{Section: s.Section, SeatNumber: s.SeatNumber, TierID: s.TierID}
	}
	return signer.Voucher{
		ContextID: contextID,
		Recipient: v.Recipient,
		Seats:     seats,
		Nonce:     v.Nonce,
		Deadline:  v.Deadline,
	}, sig, nil
}

// NativePaymentRequest pays with the native asset; AmountSent over the
// required quote is refunded.
type NativePaymentRequest struct {
	Voucher    VoucherRequest  `json:"voucher" binding:"required"`
	AmountSent decimal.Decimal `json:"amount_sent" binding:"dnonnegative"`
}

// AssetPaymentRequest pulls exactly the required quote from the caller's
// pre-approved allowance.
type AssetPaymentRequest struct {
	Asset   string         `json:"asset" binding:"required"`
	Voucher VoucherRequest `json:"voucher" binding:"required"`
}

// AllowanceRequest pre-approves the ledger to pull funds in an asset.
type AllowanceRequest struct {
	Asset  string          `json:"asset" binding:"required"`
	Amount decimal.Decimal `json:"amount" binding:"dnonnegative"`
}

// AdminMintRequest mints without signature, nonce or payment checks.
type AdminMintRequest struct {
	Recipient string        `json:"recipient" binding:"required"`
	Seats     []SeatRequest `json:"seats" binding:"required,min=1,dive"`
}

// SetSuppliesRequest updates per-tier max supplies; arrays must align.
type SetSuppliesRequest struct {
	TierIDs  []string `json:"tier_ids" binding:"required,min=1"`
	Supplies []int64  `json:"supplies" binding:"required,min=1"`
}

// SetPricesRequest updates per-tier reference prices; arrays must align.
type SetPricesRequest struct {
	TierIDs []string `json:"tier_ids" binding:"required,min=1"`
	Prices  []int64  `json:"prices" binding:"required,min=1"`
}

// SetPaymentAssetsRequest registers payment assets and their feeds.
type SetPaymentAssetsRequest struct {
	Assets    []string `json:"assets" binding:"required,min=1"`
	Feeds     []string `json:"feeds" binding:"required,min=1"`
	Exponents []int32  `json:"exponents" binding:"required,min=1"`
}

// CreateTierRequest registers a new pricing/supply tier.
type CreateTierRequest struct {
	ID             string `json:"id" binding:"required"`
	Name           string `json:"name" binding:"required"`
	ReferencePrice int64  `json:"reference_price" binding:"required,gt=0"`
	MaxSupply      int64  `json:"max_supply" binding:"required,gt=0"`
	Numbered       bool   `json:"numbered"`
}

// WithdrawRequest moves retained funds out of the ledger.
type WithdrawRequest struct {
	To    string `json:"to" binding:"required"`
	Asset string `json:"asset"`
}
