package issuance

import "errors"

var (
	ErrInvalidNonce       = errors.New("invalid nonce")
	ErrSeatAlreadyClaimed = errors.New("seat already claimed")
	ErrExceedsMaxSupply   = errors.New("exceeds max supply")
	ErrInsufficientAmount = errors.New("insufficient amount")
	ErrLengthMismatch     = errors.New("length mismatch")
	ErrUnknownTier        = errors.New("unknown tier")
	ErrLedgerPaused       = errors.New("ledger paused")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrNotTicketOwner     = errors.New("caller does not own ticket")
	ErrEmptySeatList      = errors.New("no seats in voucher")
	ErrInvalidSupply      = errors.New("max supply below sold count")
)
