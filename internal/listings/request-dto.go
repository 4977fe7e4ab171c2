package listings

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateListingRequest creates a resale offer. TicketID is optional; when
// present the listing waits for oracle verification before going live.
type CreateListingRequest struct {
	AssetContract string          `json:"asset_contract" binding:"required"`
	TokenID       int64           `json:"token_id" binding:"required"`
	Price         decimal.Decimal `json:"price" binding:"dpositive"`
	Duration      int64           `json:"duration" binding:"required,min=1"`
	TicketID      *string         `json:"ticket_id,omitempty"`
}

// ToParams resolves the optional ticket id and stamps the seller.
func (r *CreateListingRequest) ToParams(seller string) (CreateParams, error) {
	p := CreateParams{
		AssetContract: r.AssetContract,
		TokenID:       r.TokenID,
		Seller:        seller,
		Price:         r.Price,
		Duration:      r.Duration,
	}
	if r.TicketID != nil && *r.TicketID != "" {
		id, err := uuid.Parse(*r.TicketID)
		if err != nil {
			return CreateParams{}, err
		}
		p.TicketID = &id
	}
	return p, nil
}

type PurchaseRequest struct {
	AmountSent decimal.Decimal `json:"amount_sent" binding:"dpositive"`
}

// VerificationCallbackRequest is the HTTP form of an oracle result. A
// nonzero payload marks the ticket as already used.
type VerificationCallbackRequest struct {
	RequestID string `json:"request_id" binding:"required,uuid"`
	Success   bool   `json:"success"`
	Payload   int64  `json:"payload"`
}

type SetFeeRequest struct {
	FeeBps int64 `json:"fee_bps" binding:"min=0"`
}

type SetFeeRecipientRequest struct {
	Recipient string `json:"recipient" binding:"required"`
}

type SetDurationsRequest struct {
	MinDuration int64 `json:"min_duration" binding:"required,min=1"`
	MaxDuration int64 `json:"max_duration" binding:"required,min=1"`
}

type SupportedContractRequest struct {
	Addr string `json:"addr" binding:"required"`
}
