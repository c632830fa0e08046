/*
Package wallet manages seller balances, buyer cashback and withdrawals.

Sales credit a seller's balance and purchases earn the buyer cashback; both
happen in the order service when an order completes. This package covers the
rest of a wallet's life:

  - Reading balances (cached in Redis, wallets are created on first access)
  - Requesting withdrawals, which debit the full amount immediately and
    record the flat withdrawal fee on a pending ledger entry
  - Approving or rejecting pending withdrawals; a rejection refunds the
    debited amount
  - Paging through the ledger

Usage:

	svc := wallet.NewService(repo, cache, calculator, logger, metrics, wallet.WalletConfig{
	    MinimumWithdrawal: decimal.RequireFromString("10.00"),
	})

	w, err := svc.GetWallet(ctx, userID)

	tx, err := svc.RequestWithdrawal(ctx, userID, decimal.RequireFromString("50.00"))

	tx, err = svc.ProcessWithdrawal(ctx, tx.ID, true)

Error Handling:

  - ErrInsufficientBalance: the balance does not cover the withdrawal
  - ErrBelowMinimum: the amount is under WalletConfig.MinimumWithdrawal
  - ErrWalletLocked: the wallet is frozen
  - ErrWithdrawalNotFound, ErrAlreadyProcessed: admin processing failures

Amounts that are not positive, have fractions of a cent or do not cover the
fee come back as fees.ErrInvalidInput from the quote.
*/
package wallet
