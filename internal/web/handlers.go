package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/SurveyIntake/internal/logging"
	"github.com/JonMunkholm/SurveyIntake/internal/schema"
	"github.com/JonMunkholm/SurveyIntake/internal/submission"
)

// multipartMemory is how much of a multipart form is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// SchemaInfo describes a registered schema in listings.
type SchemaInfo struct {
	Key         string      `json:"key"`
	Label       string      `json:"label"`
	Kind        schema.Kind `json:"kind"`
	Description string      `json:"description,omitempty"`
	Files       []string    `json:"files"`
}

func schemaInfo(def schema.Definition) SchemaInfo {
	files := make([]string, len(def.Document.Files))
	for i, f := range def.Document.Files {
		files[i] = f.Name
	}
	return SchemaInfo{
		Key:         def.Key,
		Label:       def.Label,
		Kind:        def.Kind,
		Description: def.Document.Description,
		Files:       files,
	}
}

// handleHealth reports liveness and capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"schemas":     schema.Count(),
		"persistence": s.store != nil,
		"submissions": s.limiter.Status(),
	})
}

// handleListSchemas returns every registered schema.
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	defs := schema.All()
	infos := make([]SchemaInfo, len(defs))
	for i, def := range defs {
		infos[i] = schemaInfo(def)
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleGetSchema returns one schema document.
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	def, err := schema.Get(chi.URLParam(r, "schema"))
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, def.Document)
}

// handleValidate validates an uploaded .xlsx template or zipped archive
// against the named schema. A rejected submission is still a 200: the
// verdict is in the body.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	def, err := schema.Get(chi.URLParam(r, "schema"))
	if err != nil {
		respondError(w, r, err, http.StatusNotFound)
		return
	}

	maxSize := int64(s.cfg.Upload.MaxFileSize)
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(min(maxSize, multipartMemory)); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			respondError(w, r, fmt.Errorf("%w: limit %d bytes", errFileTooLarge, maxSize), http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errNoFile, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("reading upload: %w", err), http.StatusInternalServerError)
		return
	}

	if err := s.limiter.Acquire(r.Context()); err != nil {
		w.Header().Set("Retry-After", "30")
		respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	in, err := submission.Open(def, header.Filename, data)
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	result, err := s.service.Validate(ctx, in)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		respondError(w, r, err, status)
		return
	}

	if s.store != nil {
		if err := s.store.SaveResult(ctx, result); err != nil {
			respondError(w, r, err, http.StatusInternalServerError)
			return
		}
		logging.FromContext(ctx).Debug("submission stored", "submission_id", result.SubmissionID.String())
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetSubmission returns the stored status of a submission.
func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, submission.ErrPersistenceDisabled, http.StatusNotImplemented)
		return
	}
	id, err := submission.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	summary, err := s.store.GetSummary(r.Context(), id)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// handleGetMessages returns the stored messages of a submission.
func (s *Server) handleGetMessages(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		respondError(w, r, submission.ErrPersistenceDisabled, http.StatusNotImplemented)
		return
	}
	id, err := submission.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err, http.StatusBadRequest)
		return
	}

	msgs, err := s.store.GetMessages(r.Context(), id)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func statusFor(err error) int {
	if errors.Is(err, submission.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
