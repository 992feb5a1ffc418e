package web

import (
	"encoding/json"
	"net/http"

	"github.com/robinvdvleuten/bookkeeper/ledger"
)

// TransactionsResponse is the JSON response structure for the transactions endpoint.
type TransactionsResponse struct {
	Transactions []ledger.Transaction `json:"transactions"`
}

// TransactionCreatedResponse is returned for an accepted transaction.
type TransactionCreatedResponse struct {
	Transaction ledger.Transaction `json:"transaction"`
	DebitTotal  int64              `json:"debit_total"`
	CreditTotal int64              `json:"credit_total"`

	// Backdated is true when the transaction is older than already
	// recorded activity. Current balances include it regardless.
	Backdated bool `json:"backdated"`
}

// handleGetTransactions handles GET requests to /api/transactions.
// Returns all transactions in insertion order.
func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	txns, err := s.ledger.ListTransactions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if txns == nil {
		txns = []ledger.Transaction{}
	}

	writeJSONResponse(w, http.StatusOK, &TransactionsResponse{Transactions: txns})
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	txn, err := s.ledger.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if txn == nil {
		writeError(w, &ledger.TransactionNotFoundError{TransactionID: id})
		return
	}

	writeJSONResponse(w, http.StatusOK, txn)
}

// handlePostTransaction handles POST requests to /api/transactions.
// A missing timestamp defaults to the current time.
func (s *Server) handlePostTransaction(w http.ResponseWriter, r *http.Request) {
	var txn ledger.Transaction
	if err := json.NewDecoder(r.Body).Decode(&txn); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if txn.Timestamp.IsZero() {
		txn.Timestamp = s.now()
	}

	s.mu.Lock()
	delta, err := s.ledger.AddTransaction(r.Context(), txn)
	s.mu.Unlock()

	if err != nil {
		writeError(w, err)
		return
	}

	s.events.publish(eventTransaction, TransactionEvent{
		TransactionID: delta.Transaction.ID,
		Backdated:     delta.Backdated,
	})

	writeJSONResponse(w, http.StatusCreated, &TransactionCreatedResponse{
		Transaction: delta.Transaction,
		DebitTotal:  delta.DebitTotal,
		CreditTotal: delta.CreditTotal,
		Backdated:   delta.Backdated,
	})
}
