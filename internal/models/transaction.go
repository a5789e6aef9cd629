package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind identifies the balance-affecting event a record describes.
type TransactionKind string

const (
	KindDeposit          TransactionKind = "deposit"
	KindWithdrawal       TransactionKind = "withdrawal"
	KindTransferOut      TransactionKind = "transfer_out"
	KindTransferIn       TransactionKind = "transfer_in"
	KindInterest         TransactionKind = "interest"
	KindInitialDeposit   TransactionKind = "initial_deposit"
	KindLoanDisbursement TransactionKind = "loan_disbursement"
	KindLoanRepayment    TransactionKind = "loan_repayment"
)

// Transaction is an immutable record of one balance-affecting event.
// Records are append-only; append order is the chronological order.
type Transaction struct {
	Timestamp    time.Time       `json:"timestamp"`
	Kind         TransactionKind `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Counterparty AccountNumber   `json:"counterparty,omitempty"`
	Note         string          `json:"note,omitempty"`
}

// Signed returns the amount with the sign the kind contributes to the balance.
func (t Transaction) Signed() decimal.Decimal {
	switch t.Kind {
	case KindWithdrawal, KindTransferOut, KindLoanRepayment:
		return t.Amount.Neg()
	default:
		return t.Amount
	}
}
