package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"

	errfmt "github.com/robinvdvleuten/bookkeeper/errors"
)

// SourceResponse holds the contents of one journal file and the errors of
// the last load.
type SourceResponse struct {
	Filepath string             `json:"filepath"`
	Source   string             `json:"source"`
	Errors   []errfmt.ErrorJSON `json:"errors"`
	Files    FilesResponse      `json:"files"`
}

// FilesResponse lists the journal files the ledger was loaded from.
type FilesResponse struct {
	Root     string   `json:"root"`
	Includes []string `json:"includes"`
}

// ErrorsResponse lists the accounts and transactions rejected by the last load.
type ErrorsResponse struct {
	Errors []errfmt.ErrorJSON `json:"errors"`
}

var errNoJournal = errors.New("access denied: no journal file configured")

// journalPath resolves a requested path to an absolute one inside the
// journal's directory. Empty means the root journal file. Symlinks are
// followed before the check; a path that does not exist yet is checked
// through its parent directory.
func (s *Server) journalPath(requested string) (string, error) {
	if s.inputFile == "" {
		return "", errNoJournal
	}
	if requested == "" {
		return filepath.Abs(s.inputFile)
	}

	path, err := filepath.Abs(requested)
	if err != nil {
		return "", fmt.Errorf("invalid filepath: %w", err)
	}

	root, err := realpath(filepath.Dir(s.inputFile))
	if err != nil {
		return "", fmt.Errorf("invalid journal directory: %w", err)
	}

	resolved, err := realpath(path)
	if err != nil {
		dir, err := realpath(filepath.Dir(path))
		if err != nil {
			return "", errors.New("access denied: invalid path")
		}
		resolved = filepath.Join(dir, filepath.Base(path))
	}

	if rel, err := filepath.Rel(root, resolved); err != nil || strings.HasPrefix(rel, "..") {
		return "", errors.New("access denied: filepath outside allowed directory")
	}
	return path, nil
}

func realpath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// sourceResponse describes one file against the last load. Callers hold
// s.mu for reading.
func (s *Server) sourceResponse(filename string, source []byte) *SourceResponse {
	includes := append([]string{}, s.includeFiles...)
	return &SourceResponse{
		Filepath: filename,
		Source:   string(source),
		Errors:   errfmt.NewJSONFormatter().FormatAllToSlice(s.loadErrors),
		Files:    FilesResponse{Root: s.rootFile, Includes: includes},
	}
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	filename, err := s.journalPath(r.URL.Query().Get("filepath"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	content, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		http.Error(w, "File not found", http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, "Failed to read file", http.StatusInternalServerError)
		return
	}

	s.mu.RLock()
	response := s.sourceResponse(filename, content)
	s.mu.RUnlock()

	writeJSONResponse(w, http.StatusOK, response)
}

// handlePutSource saves a journal file and rebuilds the ledger from the
// journal. The file is replaced atomically.
func (s *Server) handlePutSource(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Filepath string `json:"filepath"`
		Source   string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	filename, err := s.journalPath(request.Filepath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	source := []byte(request.Source)
	if err := renameio.WriteFile(filename, source, 0o600); err != nil {
		http.Error(w, "Failed to write file", http.StatusInternalServerError)
		return
	}

	// A journal that no longer parses keeps the previous ledger; the file
	// stays saved so it can be fixed.
	reloadErr := s.reloadLedger(r.Context())

	s.mu.RLock()
	response := s.sourceResponse(filename, source)
	rejected := len(s.loadErrors)
	s.mu.RUnlock()

	if reloadErr != nil {
		response.Errors = append(response.Errors, errfmt.NewJSONFormatter().ToJSON(reloadErr))
	} else {
		s.events.publish(eventReload, ReloadEvent{Rejected: rejected})
	}

	writeJSONResponse(w, http.StatusOK, response)
}

func (s *Server) handleGetErrors(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	writeJSONResponse(w, http.StatusOK, &ErrorsResponse{
		Errors: errfmt.NewJSONFormatter().FormatAllToSlice(s.loadErrors),
	})
}
