package listings

import "errors"

var (
	ErrInvalidPrice        = errors.New("listing price must be positive")
	ErrInvalidDuration     = errors.New("listing duration out of allowed range")
	ErrUnsupportedContract = errors.New("asset contract is not supported")
	ErrListingNotFound     = errors.New("listing not found")
	ErrListingNotActive    = errors.New("listing is not active")
	ErrListingExpired      = errors.New("listing has expired")
	ErrInsufficientPayment = errors.New("payment below listing price")
	ErrNotSeller           = errors.New("caller is not the listing seller")
	ErrTicketAlreadyListed = errors.New("ticket already has a pending or active listing")
	ErrUnexpectedRequestID = errors.New("unknown verification request id")
	ErrInvalidFeePercent   = errors.New("fee exceeds maximum basis points")
	ErrZeroAddress         = errors.New("recipient must not be empty")
	ErrRegistryPaused      = errors.New("registry is paused")
)
