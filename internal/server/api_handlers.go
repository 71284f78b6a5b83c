package server

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"lyricfetch/internal/database"
	"lyricfetch/internal/logging"
	"lyricfetch/internal/system"
	"lyricfetch/internal/version"
	"lyricfetch/internal/worker"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error("Failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleStatus reports service health, version and system vitals
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	info := version.Get()
	payload := map[string]interface{}{
		"status":     "ok",
		"version":    info.Version,
		"go_version": info.GoVersion,
		"sites":      s.registry.Names(),
	}

	if vitals, err := system.GetVitals(); err == nil {
		payload["vitals"] = vitals
	} else {
		logging.Debug("Failed to read system vitals: %v", err)
	}

	writeJSON(w, http.StatusOK, payload)
}

type exportRequest struct {
	Site           string `json:"site"`
	Endpoint       string `json:"endpoint"`
	Title          string `json:"title"`
	IgnoreMismatch bool   `json:"ignore_mismatch"`
}

// handleExports enqueues a background export of a song page
func (s *Server) handleExports(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req exportRequest
	isJSON := strings.Contains(r.Header.Get("Content-Type"), "application/json")
	if isJSON {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid form submission")
			return
		}
		req.Site = r.PostFormValue("site")
		req.Endpoint = r.PostFormValue("endpoint")
		req.Title = r.PostFormValue("title")
		req.IgnoreMismatch = r.PostFormValue("ignore_mismatch") != ""
	}

	if req.Site == "" || req.Endpoint == "" {
		writeJSONError(w, http.StatusBadRequest, "site and endpoint are required")
		return
	}
	if _, ok := s.registry.Get(req.Site); !ok {
		writeJSONError(w, http.StatusBadRequest, "unknown site "+req.Site)
		return
	}

	metadata, err := json.Marshal(worker.Metadata{IgnoreMismatch: req.IgnoreMismatch})
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode metadata")
		return
	}

	op := &database.ExportOperation{
		ID:       uuid.NewString(),
		Site:     req.Site,
		Endpoint: req.Endpoint,
		Metadata: metadata,
	}
	if req.Title != "" {
		op.Title = sql.NullString{String: req.Title, Valid: true}
	}

	if err := database.CreateExportOperation(op); err != nil {
		logging.Error("Failed to create export operation: %v", err)
		writeJSONError(w, http.StatusInternalServerError, "failed to create operation")
		return
	}
	s.worker.Enqueue(op.ID)

	if !isJSON {
		// Form submissions come from the search page; flash and go back
		session := s.session(r)
		session.AddFlash("Export started for " + req.Endpoint)
		if err := session.Save(r, w); err != nil {
			logging.Warning("Failed to save session: %v", err)
		}
		http.Redirect(w, r, "/search", http.StatusSeeOther)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     op.ID,
		"status": database.StatusPending,
	})
}

// handleExportStatus reports the state of an export operation
func (s *Server) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/exports/")
	if id == "" || strings.Contains(id, "/") {
		writeJSONError(w, http.StatusNotFound, "operation not found")
		return
	}

	op, err := database.GetExportOperation(id)
	if err == database.ErrOperationNotFound {
		writeJSONError(w, http.StatusNotFound, "operation not found")
		return
	}
	if err != nil {
		logging.Error("Failed to load operation %s: %v", id, err)
		writeJSONError(w, http.StatusInternalServerError, "failed to load operation")
		return
	}

	payload := map[string]interface{}{
		"id":       op.ID,
		"site":     op.Site,
		"endpoint": op.Endpoint,
		"status":   op.Status,
		"progress": op.Progress,
	}
	if op.Title.Valid {
		payload["title"] = op.Title.String
	}
	if op.ProgressMessage.Valid {
		payload["progress_message"] = op.ProgressMessage.String
	}
	if op.ErrorMessage.Valid && op.ErrorMessage.String != "" {
		payload["error"] = op.ErrorMessage.String
	}
	if op.OutputPath.Valid {
		payload["output_path"] = op.OutputPath.String
	}
	if op.CompletedAt.Valid {
		payload["completed_at"] = op.CompletedAt.Time
	}

	writeJSON(w, http.StatusOK, payload)
}
