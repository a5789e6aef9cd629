package ledger

import "errors"

// Domain errors. Handlers map these onto HTTP status codes; the core
// never formats user-facing messages beyond these sentinels.
var (
	ErrInvalidAmount     = errors.New("amount must be positive with at most two decimal places")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAuthFailed        = errors.New("authentication failed")
	ErrSameAccount       = errors.New("cannot transfer to the same account")
	ErrInvalidIndex      = errors.New("no loan at that index")
	ErrDuplicateAccount  = errors.New("account name already registered")
)
