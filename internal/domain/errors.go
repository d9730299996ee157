package domain

import "errors"

// Error kinds surfaced by the lease-signing core. Validation errors are
// returned synchronously to the caller; ErrTransactionTimeout is non-fatal
// background state and never rolls back a signed lease.
var (
	ErrLeaseNotFound       = errors.New("lease not found")
	ErrInvalidLeaseState   = errors.New("lease state does not permit this operation")
	ErrUnauthorizedSigner  = errors.New("signer is not a party to this lease")
	ErrAlreadySigned       = errors.New("party has already signed this lease")
	ErrInvalidAddress      = errors.New("wallet address is missing or reserved")
	ErrInvalidRentAmount   = errors.New("rent amount must be greater than zero")
	ErrInvalidDateRange    = errors.New("end date must be after start date")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrDuplicateWallet     = errors.New("wallet address already registered for user")
	ErrCannotRemovePrimary = errors.New("cannot remove primary wallet while other wallets exist")
	ErrTransactionTimeout  = errors.New("settlement confirmation timed out")

	// ErrRoleSyncConflict should be unreachable: the role column is the single
	// source of truth. Observing it means a data-integrity problem, so it is
	// logged as an alarm rather than shown to users.
	ErrRoleSyncConflict = errors.New("role state conflicts with lease state")
)
