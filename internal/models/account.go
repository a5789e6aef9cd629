package models

import "github.com/shopspring/decimal"

// AccountNumber uniquely identifies an account. Numbers are issued
// sequentially by the ledger and are never reused.
type AccountNumber string

// Account holds a balance and the append-only log of its transactions.
// An empty PasswordHash means the account permits unauthenticated access.
type Account struct {
	Number       AccountNumber   `json:"-"`
	Name         string          `json:"name"`
	Email        string          `json:"email,omitempty"`
	PasswordHash string          `json:"password_hash,omitempty"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
	Loans        []Loan          `json:"loans,omitempty"`
}

// Clone returns a deep copy that is safe to hand outside the ledger.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Transactions = make([]Transaction, len(a.Transactions))
	copy(cp.Transactions, a.Transactions)
	if a.Loans != nil {
		cp.Loans = make([]Loan, len(a.Loans))
		copy(cp.Loans, a.Loans)
	}
	return &cp
}
