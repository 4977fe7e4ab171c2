package issuance

import (
	"errors"
	"net/http"

	"ticketforge/internal/pricing"
	"ticketforge/internal/shared/config"
	"ticketforge/internal/shared/utils/response"
	"ticketforge/internal/signer"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
	cfg     *config.Config
}

func NewController(service Service, cfg *config.Config) *Controller {
	return &Controller{service: service, cfg: cfg}
}

// statusForError maps ledger sentinels onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, signer.ErrInvalidSignature), errors.Is(err, signer.ErrSignatureExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidNonce), errors.Is(err, ErrSeatAlreadyClaimed), errors.Is(err, ErrExceedsMaxSupply):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientAmount):
		return http.StatusPaymentRequired
	case errors.Is(err, pricing.ErrUnacceptablePayment), errors.Is(err, ErrLengthMismatch),
		errors.Is(err, ErrEmptySeatList), errors.Is(err, ErrInvalidSupply):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnknownTier), errors.Is(err, ErrTicketNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotTicketOwner):
		return http.StatusForbidden
	case errors.Is(err, ErrLedgerPaused):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PAYMENT FLOWS

func (c *Controller) PayWithNative(ctx *gin.Context) {
	c.handleNative(ctx, false)
}

func (c *Controller) PayBatchWithNative(ctx *gin.Context) {
	c.handleNative(ctx, true)
}

func (c *Controller) handleNative(ctx *gin.Context, batch bool) {
	var req NativePaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	voucher, sig, err := req.Voucher.ToVoucher(c.cfg.Signer.ContextID)
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid voucher", err.Error())
		return
	}

	payment := PaymentRequest{
		Voucher:    voucher,
		Signature:  sig,
		Payer:      ctx.GetString("user_id"),
		AmountSent: req.AmountSent,
	}

	var result *MintResult
	if batch {
		result, err = c.service.PayBatchWithNative(ctx.Request.Context(), payment)
	} else {
		result, err = c.service.PayWithNative(ctx.Request.Context(), payment)
	}
	if err != nil {
		response.Error(ctx, statusForError(err), "Payment failed", err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Tickets issued", result)
}

func (c *Controller) PayWithAsset(ctx *gin.Context) {
	c.handleAsset(ctx, false)
}

func (c *Controller) PayBatchWithAsset(ctx *gin.Context) {
	c.handleAsset(ctx, true)
}

func (c *Controller) handleAsset(ctx *gin.Context, batch bool) {
	var req AssetPaymentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	voucher, sig, err := req.Voucher.ToVoucher(c.cfg.Signer.ContextID)
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid voucher", err.Error())
		return
	}

	payment := PaymentRequest{
		Voucher:   voucher,
		Signature: sig,
		Payer:     ctx.GetString("user_id"),
	}

	var result *MintResult
	if batch {
		result, err = c.service.PayBatchWithAsset(ctx.Request.Context(), req.Asset, payment)
	} else {
		result, err = c.service.PayWithAsset(ctx.Request.Context(), req.Asset, payment)
	}
	if err != nil {
		response.Error(ctx, statusForError(err), "Payment failed", err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Tickets issued", result)
}

func (c *Controller) SetAllowance(ctx *gin.Context) {
	var req AllowanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	owner := ctx.GetString("user_id")
	if err := c.service.SetAllowance(ctx.Request.Context(), owner, req.Asset, req.Amount); err != nil {
		response.Error(ctx, statusForError(err), "Failed to set allowance", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Allowance updated", nil)
}

// ADMINISTRATIVE OPERATIONS

func (c *Controller) AdminMint(ctx *gin.Context) {
	var req AdminMintRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	seats := make([]signer.Seat, len(req.Seats))
	for i, s := range req.Seats {
		seats[i] = signer.Seat{Section: s.Section, SeatNumber: s.SeatNumber, TierID: s.TierID}
	}

	result, err := c.service.AdminMint(ctx.Request.Context(), req.Recipient, seats)
	if err != nil {
		response.Error(ctx, statusForError(err), "Admin mint failed", err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Tickets minted", result)
}

func (c *Controller) SetTierSupplies(ctx *gin.Context) {
	var req SetSuppliesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	if err := c.service.SetTierSupplies(ctx.Request.Context(), req.TierIDs, req.Supplies); err != nil {
		response.Error(ctx, statusForError(err), "Failed to update supplies", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Supplies updated", nil)
}

func (c *Controller) SetTierPrices(ctx *gin.Context) {
	var req SetPricesRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	if err := c.service.SetTierPrices(ctx.Request.Context(), req.TierIDs, req.Prices); err != nil {
		response.Error(ctx, statusForError(err), "Failed to update prices", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Prices updated", nil)
}

func (c *Controller) SetPaymentAssets(ctx *gin.Context) {
	var req SetPaymentAssetsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	if err := c.service.SetPaymentAssets(ctx.Request.Context(), req.Assets, req.Feeds, req.Exponents); err != nil {
		response.Error(ctx, statusForError(err), "Failed to register payment assets", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Payment assets updated", nil)
}

func (c *Controller) CreateTier(ctx *gin.Context) {
	var req CreateTierRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	tier := Tier{
		ID:             req.ID,
		Name:           req.Name,
		ReferencePrice: req.ReferencePrice,
		MaxSupply:      req.MaxSupply,
		Numbered:       req.Numbered,
	}
	if err := c.service.CreateTier(ctx.Request.Context(), tier); err != nil {
		response.Error(ctx, statusForError(err), "Failed to create tier", err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Tier created", tier)
}

func (c *Controller) WithdrawNative(ctx *gin.Context) {
	var req WithdrawRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	result, err := c.service.WithdrawNative(ctx.Request.Context(), req.To)
	if err != nil {
		response.Error(ctx, statusForError(err), "Withdrawal failed", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Withdrawal complete", result)
}

func (c *Controller) WithdrawAsset(ctx *gin.Context) {
	var req WithdrawRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}
	if req.Asset == "" {
		response.Error(ctx, http.StatusBadRequest, "Asset is required", nil)
		return
	}

	result, err := c.service.WithdrawAsset(ctx.Request.Context(), req.To, req.Asset)
	if err != nil {
		response.Error(ctx, statusForError(err), "Withdrawal failed", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Withdrawal complete", result)
}

func (c *Controller) Pause(ctx *gin.Context) {
	if err := c.service.Pause(ctx.Request.Context()); err != nil {
		response.Error(ctx, statusForError(err), "Failed to pause ledger", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Ledger paused", nil)
}

func (c *Controller) Unpause(ctx *gin.Context) {
	if err := c.service.Unpause(ctx.Request.Context()); err != nil {
		response.Error(ctx, statusForError(err), "Failed to unpause ledger", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Ledger unpaused", nil)
}

// QUERIES

func (c *Controller) GetTier(ctx *gin.Context) {
	tier, err := c.service.GetTier(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		response.Error(ctx, statusForError(err), "Failed to get tier", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Tier retrieved", tier)
}

func (c *Controller) ListTiers(ctx *gin.Context) {
	tiers, err := c.service.ListTiers(ctx.Request.Context())
	if err != nil {
		response.Error(ctx, statusForError(err), "Failed to list tiers", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Tiers retrieved", tiers)
}

func (c *Controller) GetTicket(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid ticket ID", err.Error())
		return
	}

	ticket, err := c.service.GetTicket(ctx.Request.Context(), id)
	if err != nil {
		response.Error(ctx, statusForError(err), "Failed to get ticket", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Ticket retrieved", ticket)
}

func (c *Controller) ListTicketsByOwner(ctx *gin.Context) {
	owner := ctx.Param("owner")
	if owner == "" {
		response.Error(ctx, http.StatusBadRequest, "Owner is required", nil)
		return
	}

	tickets, err := c.service.ListTicketsByOwner(ctx.Request.Context(), owner)
	if err != nil {
		response.Error(ctx, statusForError(err), "Failed to list tickets", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Tickets retrieved", tickets)
}

func (c *Controller) ListBalances(ctx *gin.Context) {
	balances, err := c.service.ListBalances(ctx.Request.Context())
	if err != nil {
		response.Error(ctx, statusForError(err), "Failed to list balances", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Balances retrieved", balances)
}

func (c *Controller) GetNonce(ctx *gin.Context) {
	recipient := ctx.Param("owner")
	nonce, err := c.service.CurrentNonce(ctx.Request.Context(), recipient)
	if err != nil {
		response.Error(ctx, statusForError(err), "Failed to get nonce", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Nonce retrieved", gin.H{"recipient": recipient, "nonce": nonce})
}
