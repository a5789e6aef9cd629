// Package service exposes the core banking API consumed by transports:
// every ledger operation, wrapped with the save-after-mutation contract,
// session tokens and customer notifications.
package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/minibank/minibank/internal/config"
	"github.com/minibank/minibank/internal/ledger"
	"github.com/minibank/minibank/internal/models"
	"github.com/minibank/minibank/internal/store"
)

// ErrPersist marks an operation that committed in memory but could not
// be flushed to disk. The returned payload is still valid; the in-memory
// ledger remains the source of truth and the file is stale until the
// next successful save.
var ErrPersist = errors.New("ledger not flushed to disk")

// Notifier sends customer notifications for account activity.
type Notifier interface {
	TransactionNotice(to, name string, number models.AccountNumber, kind models.TransactionKind, amount, balance decimal.Decimal)
	LoanClosedNotice(to, name string, number models.AccountNumber)
}

// Service handles business logic
type Service struct {
	led      *ledger.Ledger
	store    *store.Store
	log      *logrus.Logger
	config   *config.Config
	notifier Notifier
}

// NewService initializes a new service. notifier may be nil.
func NewService(led *ledger.Ledger, st *store.Store, log *logrus.Logger, cfg *config.Config, notifier Notifier) *Service {
	return &Service{led: led, store: st, log: log, config: cfg, notifier: notifier}
}

// persist flushes the ledger after a committed mutation. Exactly one
// save per mutation, before control returns to the caller.
func (s *Service) persist(op string) error {
	if err := s.store.Save(s.led.Snapshot()); err != nil {
		s.log.Warnf("Save after %s failed, in-memory state kept: %v", op, err)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	s.log.Debugf("Data saved after %s", op)
	return nil
}

// Save flushes the current ledger state, used at shutdown.
func (s *Service) Save() error {
	return s.store.Save(s.led.Snapshot())
}

// CreateAccount opens an account and returns its state, including the
// freshly issued account number.
func (s *Service) CreateAccount(name, email, password string, initial decimal.Decimal) (*models.Account, error) {
	a, err := s.led.CreateAccount(name, email, password, initial)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Account created: %s (%s)", a.Number, a.Name)
	return a, s.persist("create account")
}

// Authenticate verifies credentials without issuing a token.
func (s *Service) Authenticate(number models.AccountNumber, password string) error {
	return s.led.Authenticate(number, password)
}

// Login authenticates an account and returns a JWT token bound to its
// account number.
func (s *Service) Login(number models.AccountNumber, password string) (string, error) {
	if err := s.led.Authenticate(number, password); err != nil {
		return "", err
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   string(number),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("Account logged in: %s", number)
	return tokenString, nil
}

// Deposit credits the account.
func (s *Service) Deposit(number models.AccountNumber, amount decimal.Decimal) (*models.Account, error) {
	a, err := s.led.Deposit(number, amount)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Deposit of %s to %s", amount, number)
	s.notifyTransaction(a, models.KindDeposit, amount)
	return a, s.persist("deposit")
}

// Withdraw debits the account.
func (s *Service) Withdraw(number models.AccountNumber, amount decimal.Decimal) (*models.Account, error) {
	a, err := s.led.Withdraw(number, amount)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Withdrawal of %s from %s", amount, number)
	s.notifyTransaction(a, models.KindWithdrawal, amount)
	return a, s.persist("withdrawal")
}

// Transfer moves funds between two accounts atomically.
func (s *Service) Transfer(from, to models.AccountNumber, amount decimal.Decimal) error {
	if err := s.led.Transfer(from, to, amount); err != nil {
		return err
	}
	s.log.Infof("Transfer of %s from %s to %s", amount, from, to)
	return s.persist("transfer")
}

// ApplyInterest credits interest to every positive-balance account.
func (s *Service) ApplyInterest(ratePercent decimal.Decimal) ([]models.InterestCredit, error) {
	credits, err := s.led.ApplyInterest(ratePercent)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Interest at %s%% applied to %d accounts", ratePercent, len(credits))
	if len(credits) == 0 {
		return credits, nil
	}
	return credits, s.persist("interest")
}

// ApplyLoan originates a loan and disburses the principal.
func (s *Service) ApplyLoan(number models.AccountNumber, amount, ratePercent decimal.Decimal) (*models.Loan, error) {
	loan, err := s.led.ApplyLoan(number, amount, ratePercent)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Loan of %s at %s%% disbursed to %s", amount, ratePercent, number)
	return loan, s.persist("loan disbursement")
}

// RepayLoan pays toward a loan from the account's balance.
func (s *Service) RepayLoan(number models.AccountNumber, index int, amount decimal.Decimal) (*ledger.Repayment, error) {
	rep, err := s.led.RepayLoan(number, index, amount)
	if err != nil {
		return nil, err
	}
	s.log.Infof("Loan repayment of %s on %s (retired=%v)", rep.Applied, number, rep.Retired)
	if rep.Retired {
		s.notifyLoanClosed(number)
	}
	return rep, s.persist("loan repayment")
}

// Account returns a snapshot of one account.
func (s *Service) Account(number models.AccountNumber) (*models.Account, error) {
	return s.led.Account(number)
}

// Balance returns the current balance of one account.
func (s *Service) Balance(number models.AccountNumber) (decimal.Decimal, error) {
	return s.led.Balance(number)
}

// Transactions returns the account's history in chronological order.
func (s *Service) Transactions(number models.AccountNumber) ([]models.Transaction, error) {
	return s.led.Transactions(number)
}

// Loans returns the account's active loans.
func (s *Service) Loans(number models.AccountNumber) ([]models.Loan, error) {
	return s.led.Loans(number)
}

func (s *Service) notifyTransaction(a *models.Account, kind models.TransactionKind, amount decimal.Decimal) {
	if s.notifier == nil || a.Email == "" {
		return
	}
	s.notifier.TransactionNotice(a.Email, a.Name, a.Number, kind, amount, a.Balance)
}

func (s *Service) notifyLoanClosed(number models.AccountNumber) {
	if s.notifier == nil {
		return
	}
	a, err := s.led.Account(number)
	if err != nil || a.Email == "" {
		return
	}
	s.notifier.LoanClosedNotice(a.Email, a.Name, a.Number)
}
