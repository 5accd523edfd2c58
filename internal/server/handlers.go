package server

import (
	"encoding/json"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dsillex/formfill/internal/document"
	"github.com/dsillex/formfill/internal/models"
	"github.com/dsillex/formfill/internal/template"
)

type analyzeRequest struct {
	FilePath     string              `json:"filePath"`
	DocumentType models.DocumentType `json:"documentType,omitempty"`
	MaxColumns   int                 `json:"maxColumns,omitempty"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FilePath == "" {
		s.respondError(w, http.StatusBadRequest, "filePath is required")
		return
	}
	s.logger.Debug("analyze request", zap.String("path", req.FilePath), zap.String("type", string(req.DocumentType)))
	result, err := s.engine.Analyze(r.Context(), req.FilePath, req.DocumentType, &models.AnalyzeOptions{MaxColumns: req.MaxColumns})
	if err != nil {
		s.logger.Error("analysis failed", zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleFill(w http.ResponseWriter, r *http.Request) {
	var job models.BatchJob
	if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("fill request", zap.String("path", job.FilePath), zap.String("output", job.OutputPath))
	result := s.engine.Fill(r.Context(), &job)
	if !result.Success {
		s.respondJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

type batchRequest struct {
	Jobs     []models.BatchJob `json:"jobs"`
	Parallel int               `json:"parallel,omitempty"`
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Jobs) == 0 {
		s.respondError(w, http.StatusBadRequest, "jobs is required")
		return
	}
	parallel := req.Parallel
	if parallel == 0 {
		parallel = s.config.Batch.Parallel
	}
	s.logger.Debug("batch request", zap.Int("jobs", len(req.Jobs)), zap.Int("parallel", parallel))
	summary := s.engine.RunBatch(r.Context(), req.Jobs, parallel)
	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	maxRows := 10
	if v := r.URL.Query().Get("rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondError(w, http.StatusBadRequest, "rows must be a positive integer")
			return
		}
		maxRows = n
	}
	content, err := os.ReadFile(path)
	if err != nil {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	rows, err := document.NewExcelAdapter(s.logger).PreviewData(content, maxRows)
	if err != nil {
		s.logger.Error("preview failed", zap.Error(err))
		s.respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"rows": rows})
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.templates.List())
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.Template
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.templates.Create(&t); err != nil {
		s.respondValidation(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, &t)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.templates.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "template not found")
		return
	}
	s.respondJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.Template
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t.ID = chi.URLParam(r, "id")
	if err := s.templates.Update(&t); err != nil {
		if _, ok := err.(*template.ValidationError); ok {
			s.respondValidation(w, err)
			return
		}
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, &t)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete template request", zap.String("id", id))
	if err := s.templates.Delete(id); err != nil {
		s.respondError(w, http.StatusNotFound, "template not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleDuplicateTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name,omitempty"`
	}
	// An empty body means default naming.
	_ = json.NewDecoder(r.Body).Decode(&body)

	dup, err := s.templates.Duplicate(chi.URLParam(r, "id"), body.Name)
	if err != nil {
		s.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	s.respondJSON(w, http.StatusCreated, dup)
}

func (s *Server) handleExportTemplate(w http.ResponseWriter, r *http.Request) {
	exp, err := s.templates.Export(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, http.StatusNotFound, "template not found")
		return
	}
	s.respondJSON(w, http.StatusOK, exp)
}

func (s *Server) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	var exp models.TemplateExport
	if err := json.NewDecoder(r.Body).Decode(&exp); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := s.templates.Import(&exp)
	if err != nil {
		s.respondValidation(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, t)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, http.StatusNotImplemented, "history not enabled")
		return
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 || limit > 500 {
		limit = 50
	}
	entries, err := s.history.List(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("history list failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total, err := s.history.Count(r.Context())
	if err != nil {
		s.logger.Error("history count failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":   total,
		"entries": entries,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondValidation(w http.ResponseWriter, err error) {
	if verr, ok := err.(*template.ValidationError); ok {
		s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":    "template validation failed",
			"problems": verr.Problems,
		})
		return
	}
	s.respondError(w, http.StatusBadRequest, err.Error())
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
