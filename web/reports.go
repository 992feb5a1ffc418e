package web

import (
	"net/http"
	"time"

	"github.com/robinvdvleuten/bookkeeper/ledger"
)

// TrialBalanceResponse is a trial balance with its balanced flag.
type TrialBalanceResponse struct {
	*ledger.TrialBalanceReport
	Balanced bool `json:"balanced"`
}

// reportTime returns the "at" query parameter, or now when it is absent.
func (s *Server) reportTime(r *http.Request) (time.Time, error) {
	at, ok, err := parseAt(r)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		at = s.now()
	}
	return at, nil
}

// handleGetTrialBalance handles GET requests to /api/reports/trial-balance.
func (s *Server) handleGetTrialBalance(w http.ResponseWriter, r *http.Request) {
	at, err := s.reportTime(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	report, err := s.ledger.GetTrialBalanceReport(r.Context(), at)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, &TrialBalanceResponse{
		TrialBalanceReport: report,
		Balanced:           report.Balanced(),
	})
}

// handleGetTransactionReport handles GET requests to /api/reports/transactions.
func (s *Server) handleGetTransactionReport(w http.ResponseWriter, r *http.Request) {
	at, err := s.reportTime(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	report, err := s.ledger.GetTransactionReport(r.Context(), at)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, report)
}
