// Package notify sends customer emails for account activity over SMTP.
// Delivery is best effort: failures are logged and never surface into
// the banking operation that triggered them.
package notify

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/minibank/minibank/internal/config"
	"github.com/minibank/minibank/internal/models"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg *config.Config
	log *logrus.Logger
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, log *logrus.Logger) *Sender {
	return &Sender{cfg: cfg, log: log}
}

// TransactionNotice notifies the holder about a deposit or withdrawal.
func (s *Sender) TransactionNotice(to, name string, number models.AccountNumber, kind models.TransactionKind, amount, balance decimal.Decimal) {
	verb := "credited to"
	if kind == models.KindWithdrawal {
		verb = "debited from"
	}
	subject := fmt.Sprintf("Account %s: %s", number, kind)
	body := fmt.Sprintf(
		"Dear %s,\n\n%s was %s account %s.\nNew balance: %s.\n\nBest regards,\nMini Bank",
		name, amount, verb, number, balance,
	)
	s.send(to, subject, body)
}

// LoanClosedNotice notifies the holder that a loan was fully repaid.
func (s *Sender) LoanClosedNotice(to, name string, number models.AccountNumber) {
	subject := fmt.Sprintf("Account %s: loan repaid", number)
	body := fmt.Sprintf(
		"Dear %s,\n\nYour loan against account %s has been fully repaid and closed.\n\nBest regards,\nMini Bank",
		name, number,
	)
	s.send(to, subject, body)
}

func (s *Sender) send(to, subject, body string) {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	auth := smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	if err := e.Send(addr, auth); err != nil {
		s.log.Errorf("Failed to send email to %s: %v", to, err)
		return
	}
	s.log.Infof("Email sent to %s: %s", to, subject)
}
