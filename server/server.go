// Package server exposes the document combination service over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hazyhaar/docmerge/combine"
	"github.com/hazyhaar/docmerge/doctype"
	"github.com/hazyhaar/docmerge/jobstore"
)

// Version is reported by the capability listing.
const Version = "1.0.0"

// Service wires the assembler and job history behind the HTTP handlers.
type Service struct {
	asm     *combine.Assembler
	store   *jobstore.Store // optional
	dataDir string
	logger  *slog.Logger
}

// New creates the HTTP service. store may be nil to disable job history.
func New(asm *combine.Assembler, store *jobstore.Store, dataDir string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{asm: asm, store: store, dataDir: dataDir, logger: logger}
}

// RegisterHTTP mounts the service routes on r.
func (s *Service) RegisterHTTP(r chi.Router) {
	r.Get("/", s.handleCapabilities)
	r.Get("/health", s.handleHealth)
	r.Get("/jobs", s.handleJobs)
	r.Post("/combine", s.handleCombine)
	r.Post("/combine-checklist", s.handleChecklist)
	r.Post("/combine-unidoc", s.handleUniDoc)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Service) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "docmerge",
		"version": Version,
		"endpoints": map[string]string{
			"POST /combine":           "combine uploaded files into one document",
			"POST /combine-checklist": "combine files into a PDF with section divider pages",
			"POST /combine-unidoc":    "combine files into a PDF with cover, course info and index",
			"GET /health":             "service health",
			"GET /jobs":               "recent job history",
		},
		"supported_input_extensions": doctype.Extensions(),
		"output_formats":             []string{"pdf", "docx", "pptx"},
		"features": []string{
			"per-file error containment",
			"input order preserved",
			"checklist divider pages",
			"unified course document scaffold",
		},
	})
}

func (s *Service) handleJobs(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	recs, err := s.store.Recent(r.Context(), 50)
	if err != nil {
		s.logger.Error("job history query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load job history", err)
		return
	}
	out := make([]map[string]any, 0, len(recs))
	for _, rec := range recs {
		out = append(out, map[string]any{
			"id":            rec.ID,
			"started_at":    rec.StartedAt.UTC().Format(time.RFC3339),
			"mode":          rec.Mode,
			"target":        rec.Target,
			"file_count":    rec.FileCount,
			"failure_count": rec.FailureCount,
			"duration_ms":   rec.Duration.Milliseconds(),
			"outcome":       rec.Outcome,
			"error":         rec.Error,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string, cause error) {
	body := map[string]string{"error": msg}
	if cause != nil {
		body["details"] = cause.Error()
	}
	writeJSON(w, code, body)
}

// sanitizeFilename reduces an uploaded filename to a safe base name. Path
// separators and parent references are stripped; an empty result falls back
// to "upload".
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Map(func(r rune) rune {
		switch {
		case r == 0, r == '/':
			return -1
		case r < 0x20:
			return -1
		}
		return r
	}, name)
	name = strings.Trim(name, ". ")
	if name == "" {
		return "upload"
	}
	return name
}
