// Package ledger implements the in-memory banking core: the account
// registry, balance-mutation operations and their invariants, and loan
// bookkeeping. It has no knowledge of HTTP or persistence; callers export
// and restore Snapshots through the store layer.
package ledger

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/minibank/minibank/internal/models"
)

// firstAccountNumber is where issuance starts on an empty ledger.
const firstAccountNumber = 10001

// Ledger is the aggregate root for all accounts. A single mutex
// serializes every operation so that cross-account mutations (transfer)
// are atomic and no caller ever observes a half-applied state.
type Ledger struct {
	mu         sync.Mutex
	nextNumber int64
	accounts   map[models.AccountNumber]*models.Account
	scheme     HashScheme
}

// New returns an empty ledger hashing new passwords under scheme.
func New(scheme HashScheme) *Ledger {
	return &Ledger{
		nextNumber: firstAccountNumber,
		accounts:   make(map[models.AccountNumber]*models.Account),
		scheme:     scheme,
	}
}

// validAmount reports whether amt is positive with cent precision.
func validAmount(amt decimal.Decimal) bool {
	return amt.IsPositive() && amt.Equal(amt.Round(2))
}

// issueNumber allocates the next account number. Caller must hold mu.
func (l *Ledger) issueNumber() models.AccountNumber {
	n := l.nextNumber
	l.nextNumber++
	return models.AccountNumber(strconv.FormatInt(n, 10))
}

// CreateAccount opens a new account and returns its state. A non-zero
// initial balance is recorded as a single initial-deposit transaction.
// An empty password leaves the account open (no authentication required).
func (l *Ledger) CreateAccount(name, email, password string, initial decimal.Decimal) (*models.Account, error) {
	if initial.IsNegative() || !initial.Equal(initial.Round(2)) {
		return nil, ErrInvalidAmount
	}

	var hash string
	if password != "" {
		h, err := HashPassword(password, l.scheme)
		if err != nil {
			return nil, err
		}
		hash = h
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for _, a := range l.accounts {
		if a.Name == name {
			return nil, ErrDuplicateAccount
		}
	}

	a := &models.Account{
		Number:       l.issueNumber(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Balance:      initial,
		Transactions: []models.Transaction{},
	}
	if initial.IsPositive() {
		a.Transactions = append(a.Transactions, models.Transaction{
			Timestamp: time.Now(),
			Kind:      models.KindInitialDeposit,
			Amount:    initial,
		})
	}
	l.accounts[a.Number] = a
	return a.Clone(), nil
}

// Authenticate verifies the password for an account. Accounts without a
// stored hash accept any password. It never mutates state, including on
// failure.
func (l *Ledger) Authenticate(number models.AccountNumber, password string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[number]
	if !ok {
		return ErrAccountNotFound
	}
	if a.PasswordHash == "" {
		return nil
	}
	if !verifyPassword(a.PasswordHash, password) {
		return ErrAuthFailed
	}
	return nil
}

// Deposit credits amount to the account and appends one deposit record.
func (l *Ledger) Deposit(number models.AccountNumber, amount decimal.Decimal) (*models.Account, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[number]
	if !ok {
		return nil, ErrAccountNotFound
	}
	a.Balance = a.Balance.Add(amount)
	a.Transactions = append(a.Transactions, models.Transaction{
		Timestamp: time.Now(),
		Kind:      models.KindDeposit,
		Amount:    amount,
	})
	return a.Clone(), nil
}

// Withdraw debits amount from the account and appends one withdrawal
// record. Overdrafts are rejected; on any failure the account is left
// untouched.
func (l *Ledger) Withdraw(number models.AccountNumber, amount decimal.Decimal) (*models.Account, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[number]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if a.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	a.Transactions = append(a.Transactions, models.Transaction{
		Timestamp: time.Now(),
		Kind:      models.KindWithdrawal,
		Amount:    amount,
	})
	return a.Clone(), nil
}

// Transfer moves amount between two accounts inside one critical
// section: all checks run first, then both balances change and both
// records are appended. Any failure leaves both accounts unchanged.
func (l *Ledger) Transfer(from, to models.AccountNumber, amount decimal.Decimal) error {
	if !validAmount(amount) {
		return ErrInvalidAmount
	}
	if from == to {
		return ErrSameAccount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	src, ok := l.accounts[from]
	if !ok {
		return ErrAccountNotFound
	}
	dst, ok := l.accounts[to]
	if !ok {
		return ErrAccountNotFound
	}
	if src.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}

	src.Balance = src.Balance.Sub(amount)
	dst.Balance = dst.Balance.Add(amount)

	now := time.Now()
	src.Transactions = append(src.Transactions, models.Transaction{
		Timestamp:    now,
		Kind:         models.KindTransferOut,
		Amount:       amount,
		Counterparty: to,
	})
	dst.Transactions = append(dst.Transactions, models.Transaction{
		Timestamp:    now,
		Kind:         models.KindTransferIn,
		Amount:       amount,
		Counterparty: from,
	})
	return nil
}

// ApplyInterest credits every account holding a positive balance with
// balance * ratePercent / 100, rounded per account to cents, half away
// from zero. Accounts where the rounded interest comes out to zero get
// no record. Returns the credits ordered by account number.
func (l *Ledger) ApplyInterest(ratePercent decimal.Decimal) ([]models.InterestCredit, error) {
	if !ratePercent.IsPositive() {
		return nil, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var credits []models.InterestCredit
	now := time.Now()
	for _, a := range l.accounts {
		if !a.Balance.IsPositive() {
			continue
		}
		interest := a.Balance.Mul(ratePercent).Div(decimal.NewFromInt(100)).Round(2)
		if !interest.IsPositive() {
			continue
		}
		a.Balance = a.Balance.Add(interest)
		a.Transactions = append(a.Transactions, models.Transaction{
			Timestamp: now,
			Kind:      models.KindInterest,
			Amount:    interest,
		})
		credits = append(credits, models.InterestCredit{
			Number:     a.Number,
			Amount:     interest,
			NewBalance: a.Balance,
		})
	}
	sort.Slice(credits, func(i, j int) bool {
		return numberLess(credits[i].Number, credits[j].Number)
	})
	return credits, nil
}

// ApplyLoan originates a loan against the account and credits the
// principal as a loan disbursement. Loan list and balance update
// together or not at all.
func (l *Ledger) ApplyLoan(number models.AccountNumber, amount, ratePercent decimal.Decimal) (*models.Loan, error) {
	if !validAmount(amount) || ratePercent.IsNegative() {
		return nil, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[number]
	if !ok {
		return nil, ErrAccountNotFound
	}

	loan := models.Loan{
		Principal:    amount,
		RatePercent:  ratePercent,
		Outstanding:  amount,
		OriginatedAt: time.Now(),
	}
	a.Loans = append(a.Loans, loan)
	a.Balance = a.Balance.Add(amount)
	a.Transactions = append(a.Transactions, models.Transaction{
		Timestamp: loan.OriginatedAt,
		Kind:      models.KindLoanDisbursement,
		Amount:    amount,
	})
	return &loan, nil
}

// Repayment reports the outcome of a loan repayment.
type Repayment struct {
	Applied     decimal.Decimal `json:"applied"`
	Outstanding decimal.Decimal `json:"outstanding"`
	Retired     bool            `json:"retired"`
	NewBalance  decimal.Decimal `json:"new_balance"`
}

// RepayLoan pays amount toward the loan at index, debiting the account.
// Requesting more than the outstanding balance debits only the capped
// amount; the excess is not withdrawn. The insufficient-funds check runs
// against the requested amount, before capping, matching the reference
// behavior. A loan repaid to exactly zero is removed from the list.
func (l *Ledger) RepayLoan(number models.AccountNumber, index int, amount decimal.Decimal) (*Repayment, error) {
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[number]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if index < 0 || index >= len(a.Loans) {
		return nil, ErrInvalidIndex
	}
	if a.Balance.LessThan(amount) {
		return nil, ErrInsufficientFunds
	}

	loan := &a.Loans[index]
	applied := amount
	if applied.GreaterThan(loan.Outstanding) {
		applied = loan.Outstanding
	}

	a.Balance = a.Balance.Sub(applied)
	a.Transactions = append(a.Transactions, models.Transaction{
		Timestamp: time.Now(),
		Kind:      models.KindLoanRepayment,
		Amount:    applied,
	})
	loan.Outstanding = loan.Outstanding.Sub(applied)

	rep := &Repayment{
		Applied:     applied,
		Outstanding: loan.Outstanding,
		Retired:     loan.Outstanding.IsZero(),
		NewBalance:  a.Balance,
	}
	if rep.Retired {
		a.Loans = append(a.Loans[:index], a.Loans[index+1:]...)
		if len(a.Loans) == 0 {
			a.Loans = nil
		}
	}
	return rep, nil
}

// Account returns a snapshot of one account.
func (l *Ledger) Account(number models.AccountNumber) (*models.Account, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[number]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a.Clone(), nil
}

// Balance returns the current balance of one account.
func (l *Ledger) Balance(number models.AccountNumber) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[number]
	if !ok {
		return decimal.Zero, ErrAccountNotFound
	}
	return a.Balance, nil
}

// Transactions returns the transaction history of one account in
// chronological order.
func (l *Ledger) Transactions(number models.AccountNumber) ([]models.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[number]
	if !ok {
		return nil, ErrAccountNotFound
	}
	out := make([]models.Transaction, len(a.Transactions))
	copy(out, a.Transactions)
	return out, nil
}

// Loans returns the active loans of one account.
func (l *Ledger) Loans(number models.AccountNumber) ([]models.Loan, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[number]
	if !ok {
		return nil, ErrAccountNotFound
	}
	out := make([]models.Loan, len(a.Loans))
	copy(out, a.Loans)
	return out, nil
}

// List returns snapshots of every account, ordered by number.
func (l *Ledger) List() []*models.Account {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*models.Account, 0, len(l.accounts))
	for _, a := range l.accounts {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return numberLess(out[i].Number, out[j].Number)
	})
	return out
}

// Snapshot exports the whole ledger for persistence.
func (l *Ledger) Snapshot() models.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := models.Snapshot{
		Accounts:          make(map[models.AccountNumber]*models.Account, len(l.accounts)),
		NextAccountNumber: l.nextNumber,
	}
	for n, a := range l.accounts {
		s.Accounts[n] = a.Clone()
	}
	return s
}

// Restore replaces the ledger state with a previously loaded snapshot.
func (l *Ledger) Restore(s models.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextNumber = s.NextAccountNumber
	if l.nextNumber < firstAccountNumber {
		l.nextNumber = firstAccountNumber
	}
	l.accounts = make(map[models.AccountNumber]*models.Account, len(s.Accounts))
	for n, a := range s.Accounts {
		cp := a.Clone()
		cp.Number = n
		l.accounts[n] = cp
	}
}

// numberLess orders account numbers numerically where possible.
func numberLess(a, b models.AccountNumber) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
