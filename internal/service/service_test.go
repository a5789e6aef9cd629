package service

import (
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/minibank/minibank/internal/config"
	"github.com/minibank/minibank/internal/ledger"
	"github.com/minibank/minibank/internal/models"
	"github.com/minibank/minibank/internal/store"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type fakeNotifier struct {
	transactions []models.TransactionKind
	loanClosed   []models.AccountNumber
}

func (f *fakeNotifier) TransactionNotice(to, name string, number models.AccountNumber, kind models.TransactionKind, amount, balance decimal.Decimal) {
	f.transactions = append(f.transactions, kind)
}

func (f *fakeNotifier) LoanClosedNotice(to, name string, number models.AccountNumber) {
	f.loanClosed = append(f.loanClosed, number)
}

func newService(t *testing.T, notifier Notifier) (*Service, *store.Store) {
	t.Helper()
	log := quietLogger()
	st := store.New(filepath.Join(t.TempDir(), "bank_data.json"), log)
	led := ledger.New(ledger.SchemeSHA256)
	led.Restore(st.Load())
	cfg := &config.Config{JWTSecret: "test-secret", HashScheme: "sha256"}
	return NewService(led, st, log, cfg, notifier), st
}

func TestMutationsAreSavedBeforeReturning(t *testing.T) {
	svc, st := newService(t, nil)

	a, err := svc.CreateAccount("Alice", "", "pw", d("100.00"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Deposit(a.Number, d("50.00")); err != nil {
		t.Fatal(err)
	}

	// A fresh load of the backing file must mirror the in-memory state.
	snap := st.Load()
	got, ok := snap.Accounts[a.Number]
	if !ok {
		t.Fatalf("account %s not on disk", a.Number)
	}
	if !got.Balance.Equal(d("150.00")) {
		t.Fatalf("persisted balance=%s want 150.00", got.Balance)
	}
	if len(got.Transactions) != 2 {
		t.Fatalf("persisted %d records want 2", len(got.Transactions))
	}
	if snap.NextAccountNumber != 10002 {
		t.Fatalf("persisted counter=%d want 10002", snap.NextAccountNumber)
	}
	if got.PasswordHash == "" || got.PasswordHash == "pw" {
		t.Fatalf("password must be stored hashed, got %q", got.PasswordHash)
	}
}

func TestPersistFailureKeepsInMemoryState(t *testing.T) {
	log := quietLogger()
	// A store pointed into a missing directory cannot save.
	st := store.New(filepath.Join(t.TempDir(), "missing", "bank_data.json"), log)
	led := ledger.New(ledger.SchemeSHA256)
	cfg := &config.Config{JWTSecret: "test-secret"}
	svc := NewService(led, st, log, cfg, nil)

	a, err := svc.CreateAccount("Alice", "", "", d("100.00"))
	if !errors.Is(err, ErrPersist) {
		t.Fatalf("want ErrPersist, got %v", err)
	}
	if a == nil {
		t.Fatal("payload must be returned alongside ErrPersist")
	}

	// The mutation is committed in memory regardless of the failed save.
	bal, err := svc.Balance(a.Number)
	if err != nil {
		t.Fatal(err)
	}
	if !bal.Equal(d("100.00")) {
		t.Fatalf("in-memory balance=%s want 100.00", bal)
	}
}

func TestLoginIssuesAccountBoundToken(t *testing.T) {
	svc, _ := newService(t, nil)
	a, err := svc.CreateAccount("Alice", "", "hunter2", d("0"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Login(a.Number, "wrong"); !errors.Is(err, ledger.ErrAuthFailed) {
		t.Fatalf("want ErrAuthFailed, got %v", err)
	}

	tokenString, err := svc.Login(a.Number, "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Subject != string(a.Number) {
		t.Fatalf("token subject=%q want %q", claims.Subject, a.Number)
	}
}

func TestTransferPersistsBothSides(t *testing.T) {
	svc, st := newService(t, nil)
	a, _ := svc.CreateAccount("Alice", "", "", d("100.00"))
	b, _ := svc.CreateAccount("Bob", "", "", d("0"))

	if err := svc.Transfer(a.Number, b.Number, d("90.00")); err != nil {
		t.Fatal(err)
	}

	snap := st.Load()
	if got := snap.Accounts[a.Number].Balance; !got.Equal(d("10.00")) {
		t.Fatalf("persisted source balance=%s want 10.00", got)
	}
	if got := snap.Accounts[b.Number].Balance; !got.Equal(d("90.00")) {
		t.Fatalf("persisted destination balance=%s want 90.00", got)
	}
}

func TestNotifications(t *testing.T) {
	fake := &fakeNotifier{}
	svc, _ := newService(t, fake)

	withEmail, _ := svc.CreateAccount("Alice", "alice@example.com", "", d("100.00"))
	noEmail, _ := svc.CreateAccount("Bob", "", "", d("100.00"))

	if _, err := svc.Deposit(withEmail.Number, d("10.00")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Withdraw(withEmail.Number, d("5.00")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Deposit(noEmail.Number, d("10.00")); err != nil {
		t.Fatal(err)
	}
	if len(fake.transactions) != 2 {
		t.Fatalf("want 2 transaction notices, got %v", fake.transactions)
	}
	if fake.transactions[0] != models.KindDeposit || fake.transactions[1] != models.KindWithdrawal {
		t.Fatalf("notice kinds wrong: %v", fake.transactions)
	}

	if _, err := svc.ApplyLoan(withEmail.Number, d("50.00"), d("10")); err != nil {
		t.Fatal(err)
	}
	if len(fake.loanClosed) != 0 {
		t.Fatal("loan-closed notice sent before the loan was repaid")
	}
	if _, err := svc.RepayLoan(withEmail.Number, 0, d("50.00")); err != nil {
		t.Fatal(err)
	}
	if len(fake.loanClosed) != 1 || fake.loanClosed[0] != withEmail.Number {
		t.Fatalf("want one loan-closed notice for %s, got %v", withEmail.Number, fake.loanClosed)
	}
}

func TestApplyInterestPersistsOnce(t *testing.T) {
	svc, st := newService(t, nil)
	a, _ := svc.CreateAccount("Alice", "", "", d("90.00"))

	credits, err := svc.ApplyInterest(d("1.5"))
	if err != nil {
		t.Fatal(err)
	}
	if len(credits) != 1 || !credits[0].Amount.Equal(d("1.35")) {
		t.Fatalf("credits=%+v", credits)
	}

	snap := st.Load()
	if got := snap.Accounts[a.Number].Balance; !got.Equal(d("91.35")) {
		t.Fatalf("persisted balance=%s want 91.35", got)
	}
}
