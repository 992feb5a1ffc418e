package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	errfmt "github.com/robinvdvleuten/bookkeeper/errors"
	"github.com/robinvdvleuten/bookkeeper/ledger"
)

// ErrorResponse is the body of every failed request caused by a ledger error.
type ErrorResponse struct {
	Error errfmt.ErrorJSON `json:"error"`
}

// writeJSONResponse writes a JSON response to the http.ResponseWriter.
// If encoding fails, it writes an error response.
func writeJSONResponse(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// writeError maps a ledger error to a status code and writes it as JSON.
func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error("request failed")
	}
	writeJSONResponse(w, status, &ErrorResponse{Error: errfmt.NewJSONFormatter().ToJSON(err)})
}

// statusForError returns the HTTP status for err. Lookups of a missing
// entity are 404, but an unknown account referenced from a transaction
// entry is a bad request.
func statusForError(err error) int {
	var (
		dupID       *ledger.DuplicateIDError
		dupName     *ledger.DuplicateNameError
		notFound    *ledger.AccountNotFoundError
		txnNotFound *ledger.TransactionNotFoundError
		tooFew      *ledger.TransactionTooFewEntriesError
		unbalanced  *ledger.TransactionUnbalancedError
		unknownType *ledger.TransactionUnknownAccountTypeError
		invalidType *ledger.InvalidAccountTypeError
	)

	switch {
	case errors.As(err, &dupID), errors.As(err, &dupName):
		return http.StatusConflict
	case errors.As(err, &notFound):
		if notFound.InTransaction {
			return http.StatusBadRequest
		}
		return http.StatusNotFound
	case errors.As(err, &txnNotFound):
		return http.StatusNotFound
	case errors.As(err, &tooFew), errors.As(err, &unbalanced), errors.As(err, &unknownType), errors.As(err, &invalidType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseID reads the {id} path value.
func parseID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// parseAt reads the optional "at" query parameter as RFC 3339. The second
// return value is false when the parameter is absent.
func parseAt(r *http.Request) (time.Time, bool, error) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		return time.Time{}, false, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("invalid at timestamp (expected RFC 3339): %s", raw)
	}
	return at, true, nil
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps server-sent events working through the recorder.
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// logRequests logs every request at debug level.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("request")
	})
}
