package models

import "github.com/shopspring/decimal"

// Snapshot is the persisted form of the whole ledger: every account with
// its full transaction history and loans, plus the number-issuance counter.
type Snapshot struct {
	Accounts          map[AccountNumber]*Account `json:"accounts"`
	NextAccountNumber int64                      `json:"next_account_number"`
}

// InterestCredit reports interest applied to a single account.
type InterestCredit struct {
	Number     AccountNumber   `json:"account"`
	Amount     decimal.Decimal `json:"amount"`
	NewBalance decimal.Decimal `json:"new_balance"`
}
