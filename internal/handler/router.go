package handler

import (
	"github.com/gorilla/mux"

	"github.com/minibank/minibank/internal/config"
	"github.com/minibank/minibank/internal/middleware"
)

// Routes builds the HTTP router. Account-scoped routes sit behind the
// JWT middleware; registration, login and the rate lookup are public.
func (h *Handler) Routes(cfg *config.Config) *mux.Router {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.HandleFunc("/accounts", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/loan-rate", h.LoanRate).Methods("GET")
	r.HandleFunc("/interest", h.ApplyInterest).Methods("POST")

	// Protected routes
	authRouter := r.PathPrefix("/accounts/{number}").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/balance", h.Balance).Methods("GET")
	authRouter.HandleFunc("/transactions", h.Transactions).Methods("GET")
	authRouter.HandleFunc("/deposit", h.Deposit).Methods("POST")
	authRouter.HandleFunc("/withdraw", h.Withdraw).Methods("POST")
	authRouter.HandleFunc("/transfer", h.Transfer).Methods("POST")
	authRouter.HandleFunc("/loans", h.Loans).Methods("GET")
	authRouter.HandleFunc("/loans", h.ApplyLoan).Methods("POST")
	authRouter.HandleFunc("/loans/{index}/repay", h.RepayLoan).Methods("POST")

	return r
}
