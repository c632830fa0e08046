package order

import "errors"

// Service errors
var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrSellerNotFound       = errors.New("seller not found")
	ErrSelfPurchase         = errors.New("buyers cannot purchase their own listing")
	ErrInvalidTransition    = errors.New("invalid order status transition")
	ErrUnknownStatus        = errors.New("unknown order status")
	ErrForbidden            = errors.New("not allowed to change this order")
	ErrCompletionInProgress = errors.New("order completion already in progress")
)
