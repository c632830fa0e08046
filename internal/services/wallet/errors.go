package wallet

import "errors"

// Service errors
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBelowMinimum        = errors.New("amount below minimum withdrawal")
	ErrWalletLocked        = errors.New("wallet is locked")
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrAlreadyProcessed    = errors.New("withdrawal already processed")
	ErrTransactionFailed   = errors.New("transaction failed")
)
