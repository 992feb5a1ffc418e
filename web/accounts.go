package web

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/bookkeeper/ledger"
)

// AccountsResponse is the JSON response structure for the accounts endpoint.
type AccountsResponse struct {
	Accounts []ledger.Account `json:"accounts"`
}

// BalanceResponse is the balance of one account. At is nil for the cached
// current balance.
type BalanceResponse struct {
	Account ledger.Account  `json:"account"`
	Balance int64           `json:"balance"`
	Amount  decimal.Decimal `json:"amount"`
	At      *time.Time      `json:"at,omitempty"`
}

// handleGetAccounts handles GET requests to /api/accounts.
// Returns all accounts in store order.
func (s *Server) handleGetAccounts(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts, err := s.ledger.ListAccounts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if accounts == nil {
		accounts = []ledger.Account{}
	}

	writeJSONResponse(w, http.StatusOK, &AccountsResponse{Accounts: accounts})
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, err := s.ledger.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if acc == nil {
		writeError(w, ledger.NewAccountNotFoundError(id))
		return
	}

	writeJSONResponse(w, http.StatusOK, acc)
}

// handlePostAccount handles POST requests to /api/accounts.
// The body is a single account; its type must be "debit" or "credit".
func (s *Server) handlePostAccount(w http.ResponseWriter, r *http.Request) {
	var acc ledger.Account
	if err := json.NewDecoder(r.Body).Decode(&acc); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	err := s.ledger.AddAccount(r.Context(), acc)
	s.mu.Unlock()

	if err != nil {
		writeError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, acc)
}

// handleGetAccountBalance handles GET requests to /api/accounts/{id}/balance.
//
// Query parameters:
//   - at: RFC 3339 timestamp. When given, the balance is replayed from
//     history as of that instant. Otherwise the cached current balance is
//     returned.
func (s *Server) handleGetAccountBalance(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	at, historic, err := parseAt(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		acc     ledger.Account
		balance int64
	)
	if historic {
		acc, balance, err = s.ledger.GetHistoricBalance(r.Context(), id, at)
	} else {
		acc, balance, err = s.ledger.GetAccountBalance(r.Context(), id)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	response := &BalanceResponse{
		Account: acc,
		Balance: balance,
		Amount:  s.amount(balance),
	}
	if historic {
		response.At = &at
	}
	writeJSONResponse(w, http.StatusOK, response)
}

// amount converts minor units to a decimal in major units.
func (s *Server) amount(value int64) decimal.Decimal {
	return decimal.New(value, -s.MinorUnits)
}
