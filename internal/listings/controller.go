package listings

import (
	"errors"
	"net/http"
	"strconv"

	"ticketforge/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// statusForError maps registry sentinels onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPrice), errors.Is(err, ErrInvalidDuration),
		errors.Is(err, ErrUnsupportedContract), errors.Is(err, ErrInvalidFeePercent),
		errors.Is(err, ErrZeroAddress):
		return http.StatusBadRequest
	case errors.Is(err, ErrListingNotFound), errors.Is(err, ErrUnexpectedRequestID):
		return http.StatusNotFound
	case errors.Is(err, ErrListingNotActive), errors.Is(err, ErrListingExpired),
		errors.Is(err, ErrTicketAlreadyListed):
		return http.StatusConflict
	case errors.Is(err, ErrInsufficientPayment):
		return http.StatusPaymentRequired
	case errors.Is(err, ErrNotSeller):
		return http.StatusForbidden
	case errors.Is(err, ErrRegistryPaused):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func listingID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(ctx, http.StatusBadRequest, "Invalid listing ID", nil)
		return 0, false
	}
	return id, true
}

func (c *Controller) CreateListing(ctx *gin.Context) {
	var req CreateListingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	params, err := req.ToParams(ctx.GetString("user_id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid ticket ID", err.Error())
		return
	}

	listing, err := c.service.CreateListing(ctx.Request.Context(), params)
	if err != nil {
		response.Error(ctx, statusForError(err), "Failed to create listing", err.Error())
		return
	}

	response.Success(ctx, http.StatusCreated, "Listing created", listing)
}

func (c *Controller) PurchaseListing(ctx *gin.Context) {
	id, ok := listingID(ctx)
	if !ok {
		return
	}

	var req PurchaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	result, err := c.service.PurchaseListing(ctx.Request.Context(), id, ctx.GetString("user_id"), req.AmountSent)
	if err != nil {
		response.Error(ctx, statusForError(err), "Purchase failed", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Listing purchased", result)
}

func (c *Controller) CancelListing(ctx *gin.Context) {
	id, ok := listingID(ctx)
	if !ok {
		return
	}

	if err := c.service.CancelListing(ctx.Request.Context(), id, ctx.GetString("user_id")); err != nil {
		response.Error(ctx, statusForError(err), "Failed to cancel listing", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Listing cancelled", nil)
}

func (c *Controller) EmergencyCancelListing(ctx *gin.Context) {
	id, ok := listingID(ctx)
	if !ok {
		return
	}

	if err := c.service.EmergencyCancelListing(ctx.Request.Context(), id); err != nil {
		response.Error(ctx, statusForError(err), "Failed to cancel listing", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Listing cancelled", nil)
}

// VerificationCallback is the HTTP delivery path for oracle results; the
// Kafka consumer feeds the same service method.
func (c *Controller) VerificationCallback(ctx *gin.Context) {
	var req VerificationCallbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request ID", err.Error())
		return
	}

	if err := c.service.OnVerificationResult(ctx.Request.Context(), requestID, req.Success, req.Payload); err != nil {
		response.Error(ctx, statusForError(err), "Failed to apply verification result", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Verification result applied", nil)
}

// ADMINISTRATIVE OPERATIONS

func (c *Controller) SetFee(ctx *gin.Context) {
	var req SetFeeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	if err := c.service.SetFeeBps(ctx.Request.Context(), req.FeeBps); err != nil {
		response.Error(ctx, statusForError(err), "Failed to update fee", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Fee updated", nil)
}

func (c *Controller) SetFeeRecipient(ctx *gin.Context) {
	var req SetFeeRecipientRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	if err := c.service.SetFeeRecipient(ctx.Request.Context(), req.Recipient); err != nil {
		response.Error(ctx, statusForError(err), "Failed to update fee recipient", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Fee recipient updated", nil)
}

func (c *Controller) SetDurations(ctx *gin.Context) {
	var req SetDurationsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	if err := c.service.SetDurations(ctx.Request.Context(), req.MinDuration, req.MaxDuration); err != nil {
		response.Error(ctx, statusForError(err), "Failed to update durations", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Durations updated", nil)
}

func (c *Controller) AddSupportedContract(ctx *gin.Context) {
	var req SupportedContractRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	if err := c.service.AddSupportedContract(ctx.Request.Context(), req.Addr); err != nil {
		response.Error(ctx, statusForError(err), "Failed to add contract", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Contract added", nil)
}

func (c *Controller) RemoveSupportedContract(ctx *gin.Context) {
	var req SupportedContractRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid request data", err.Error())
		return
	}

	if err := c.service.RemoveSupportedContract(ctx.Request.Context(), req.Addr); err != nil {
		response.Error(ctx, statusForError(err), "Failed to remove contract", err.Error())
		return
	}

	response.Success(ctx, http.StatusOK, "Contract removed", nil)
}

func (c *Controller) Pause(ctx *gin.Context) {
	if err := c.service.Pause(ctx.Request.Context()); err != nil {
		response.Error(ctx, statusForError(err), "Failed to pause registry", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Registry paused", nil)
}

func (c *Controller) Unpause(ctx *gin.Context) {
	if err := c.service.Unpause(ctx.Request.Context()); err != nil {
		response.Error(ctx, statusForError(err), "Failed to unpause registry", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Registry unpaused", nil)
}

// QUERIES

func (c *Controller) GetListing(ctx *gin.Context) {
	id, ok := listingID(ctx)
	if !ok {
		return
	}

	listing, err := c.service.GetListing(ctx.Request.Context(), id)
	if err != nil {
		response.Error(ctx, statusForError(err), "Failed to get listing", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Listing retrieved", listing)
}

func (c *Controller) ListActiveListings(ctx *gin.Context) {
	listings, err := c.service.ListActiveListings(ctx.Request.Context())
	if err != nil {
		response.Error(ctx, statusForError(err), "Failed to list listings", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Listings retrieved", listings)
}

func (c *Controller) GetTicketStatus(ctx *gin.Context) {
	ticketID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.Error(ctx, http.StatusBadRequest, "Invalid ticket ID", err.Error())
		return
	}

	status, err := c.service.TicketStatus(ctx.Request.Context(), ticketID)
	if err != nil {
		response.Error(ctx, statusForError(err), "Failed to get ticket status", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Ticket status retrieved", gin.H{"ticket_id": ticketID, "status": status})
}

func (c *Controller) ListSupportedContracts(ctx *gin.Context) {
	contracts, err := c.service.ListSupportedContracts(ctx.Request.Context())
	if err != nil {
		response.Error(ctx, statusForError(err), "Failed to list contracts", err.Error())
		return
	}
	response.Success(ctx, http.StatusOK, "Contracts retrieved", contracts)
}
