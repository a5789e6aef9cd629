// Package handler exposes the banking service over HTTP. Handlers only
// decode requests, call the service and encode responses; no business
// rules live here.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/minibank/minibank/internal/middleware"
	"github.com/minibank/minibank/internal/models"
	"github.com/minibank/minibank/internal/service"
)

// RateSource provides the suggested annual loan rate in percent.
type RateSource interface {
	SuggestedLoanRate() (float64, error)
}

type Handler struct {
	svc   *service.Service
	rates RateSource
	log   *logrus.Logger
}

// NewHandler wires the HTTP layer. rates may be nil when no rate
// source is configured.
func NewHandler(svc *service.Service, rates RateSource, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, rates: rates, log: log}
}

// accountResponse is the externally visible account state. The stored
// password hash never leaves the process.
type accountResponse struct {
	Number  models.AccountNumber `json:"number"`
	Name    string               `json:"name"`
	Email   string               `json:"email,omitempty"`
	Balance decimal.Decimal      `json:"balance"`
}

func toResponse(a *models.Account) accountResponse {
	return accountResponse{Number: a.Number, Name: a.Name, Email: a.Email, Balance: a.Balance}
}

// decode parses the JSON request body into v.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// authorize checks that the token in the request belongs to the account
// named in the path.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, number models.AccountNumber) bool {
	if middleware.AccountNumber(r.Context()) != string(number) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "token does not match account"})
		return false
	}
	return true
}

func pathNumber(r *http.Request) models.AccountNumber {
	return models.AccountNumber(mux.Vars(r)["number"])
}

// Register handles account creation
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string          `json:"name"`
		Email          string          `json:"email"`
		Password       string          `json:"password"`
		InitialBalance decimal.Decimal `json:"initial_balance"`
	}
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.CreateAccount(req.Name, req.Email, req.Password, req.InitialBalance)
	if err != nil && a == nil {
		writeError(w, err)
		return
	}
	writeMutation(w, http.StatusCreated, toResponse(a), err)
}

// Login handles authentication and issues a session token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Number   models.AccountNumber `json:"number"`
		Password string               `json:"password"`
	}
	if !decode(w, r, &req) {
		return
	}
	token, err := h.svc.Login(req.Number, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Deposit handles a credit to the account in the path
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	number := pathNumber(r)
	if !h.authorize(w, r, number) {
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.Deposit(number, req.Amount)
	if err != nil && a == nil {
		writeError(w, err)
		return
	}
	writeMutation(w, http.StatusOK, toResponse(a), err)
}

// Withdraw handles a debit from the account in the path
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	number := pathNumber(r)
	if !h.authorize(w, r, number) {
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	a, err := h.svc.Withdraw(number, req.Amount)
	if err != nil && a == nil {
		writeError(w, err)
		return
	}
	writeMutation(w, http.StatusOK, toResponse(a), err)
}

// Transfer moves funds from the account in the path to another account
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	from := pathNumber(r)
	if !h.authorize(w, r, from) {
		return
	}
	var req struct {
		To     models.AccountNumber `json:"to"`
		Amount decimal.Decimal      `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	err := h.svc.Transfer(from, req.To, req.Amount)
	if err != nil && !errors.Is(err, service.ErrPersist) {
		writeError(w, err)
		return
	}
	balance, berr := h.svc.Balance(from)
	if berr != nil {
		writeError(w, berr)
		return
	}
	writeMutation(w, http.StatusOK, map[string]any{
		"from":    from,
		"to":      req.To,
		"amount":  req.Amount,
		"balance": balance,
	}, err)
}

// Balance returns the current balance of the account in the path
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	number := pathNumber(r)
	if !h.authorize(w, r, number) {
		return
	}
	balance, err := h.svc.Balance(number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"number": number, "balance": balance})
}

// Transactions returns the account history in chronological order
func (h *Handler) Transactions(w http.ResponseWriter, r *http.Request) {
	number := pathNumber(r)
	if !h.authorize(w, r, number) {
		return
	}
	txs, err := h.svc.Transactions(number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

// Loans returns the account's active loans
func (h *Handler) Loans(w http.ResponseWriter, r *http.Request) {
	number := pathNumber(r)
	if !h.authorize(w, r, number) {
		return
	}
	loans, err := h.svc.Loans(number)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, loans)
}

// ApplyLoan originates a loan disbursed to the account in the path
func (h *Handler) ApplyLoan(w http.ResponseWriter, r *http.Request) {
	number := pathNumber(r)
	if !h.authorize(w, r, number) {
		return
	}
	var req struct {
		Amount      decimal.Decimal `json:"amount"`
		RatePercent decimal.Decimal `json:"rate_percent"`
	}
	if !decode(w, r, &req) {
		return
	}
	loan, err := h.svc.ApplyLoan(number, req.Amount, req.RatePercent)
	if err != nil && loan == nil {
		writeError(w, err)
		return
	}
	writeMutation(w, http.StatusCreated, loan, err)
}

// RepayLoan pays toward the loan at the index in the path
func (h *Handler) RepayLoan(w http.ResponseWriter, r *http.Request) {
	number := pathNumber(r)
	if !h.authorize(w, r, number) {
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid loan index"})
		return
	}
	var req struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if !decode(w, r, &req) {
		return
	}
	rep, err := h.svc.RepayLoan(number, index, req.Amount)
	if err != nil && rep == nil {
		writeError(w, err)
		return
	}
	writeMutation(w, http.StatusOK, rep, err)
}

// ApplyInterest credits the flat annual rate to every account
func (h *Handler) ApplyInterest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RatePercent decimal.Decimal `json:"rate_percent"`
	}
	if !decode(w, r, &req) {
		return
	}
	credits, err := h.svc.ApplyInterest(req.RatePercent)
	if err != nil && credits == nil {
		writeError(w, err)
		return
	}
	writeMutation(w, http.StatusOK, map[string]any{"applied": len(credits), "credits": credits}, err)
}

// LoanRate returns the suggested annual loan rate
func (h *Handler) LoanRate(w http.ResponseWriter, r *http.Request) {
	if h.rates == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "rate source not configured"})
		return
	}
	rate, err := h.rates.SuggestedLoanRate()
	if err != nil {
		h.log.Errorf("Failed to get loan rate: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "rate source unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"rate_percent": rate})
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
