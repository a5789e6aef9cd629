package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan is a principal/outstanding-balance pair repayable against the
// account it was disbursed to. Outstanding starts at Principal, never
// exceeds it, and the loan is retired when it reaches exactly zero.
type Loan struct {
	Principal    decimal.Decimal `json:"principal"`
	RatePercent  decimal.Decimal `json:"rate_percent"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	OriginatedAt time.Time       `json:"originated_at"`
}
