package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gyeh/claimaudit/internal/export"
	"github.com/gyeh/claimaudit/internal/model"
	"github.com/gyeh/claimaudit/internal/normalize"
	"github.com/gyeh/claimaudit/internal/session"
	"github.com/gyeh/claimaudit/internal/storage"
)

var errBadUpload = errors.New("invalid upload")

type startResponse struct {
	AuditID string       `json:"audit_id"`
	Status  model.Status `json:"status"`
	Message string       `json:"message"`
}

type statusResponse struct {
	AuditID         string       `json:"audit_id"`
	Status          model.Status `json:"status"`
	ProgressStep    string       `json:"progress_step,omitempty"`
	ProgressMessage string       `json:"progress_message,omitempty"`
	Error           string       `json:"error,omitempty"`
}

type uploadResponse struct {
	AuditID   string          `json:"audit_id"`
	Status    model.Status    `json:"status"`
	Message   string          `json:"message"`
	Documents model.Documents `json:"documents"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Create()
	writeJSON(w, http.StatusOK, startResponse{
		AuditID: sess.ID,
		Status:  sess.Status,
		Message: "Audit session created. Upload the bill and policy next.",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Status(chi.URLParam(r, "auditID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusOf(sess))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "auditID")
	sess, err := s.sessions.Status(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sess.Status != model.StatusCreated {
		s.writeError(w, &session.StateError{ID: id, Op: "upload documents for", Have: sess.Status})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 2*s.cfg.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errBadUpload, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	var docs model.Documents
	var stored []string
	for _, kind := range []string{"bill", "policy"} {
		file, header, err := r.FormFile(kind)
		if errors.Is(err, http.ErrMissingFile) {
			continue
		}
		if err != nil {
			s.discard(r, stored)
			s.writeError(w, fmt.Errorf("%w: %s: %v", errBadUpload, kind, err))
			return
		}
		ref, err := s.store(r, id, kind, file, header)
		file.Close()
		if err != nil {
			s.discard(r, stored)
			s.writeError(w, err)
			return
		}
		stored = append(stored, ref.Key)
		if kind == "bill" {
			docs.Bill = ref
		} else {
			docs.Policy = ref
		}
	}
	if docs.Bill == nil && docs.Policy == nil {
		s.writeError(w, fmt.Errorf("%w: expected multipart fields bill and policy", errBadUpload))
		return
	}

	sess, replaced, err := s.sessions.ReplaceDocuments(id, docs)
	if err != nil {
		s.discard(r, stored)
		s.writeError(w, err)
		return
	}
	var stale []string
	for _, ref := range replaced {
		stale = append(stale, ref.Key)
	}
	s.discard(r, stale)
	msg := "Documents uploaded. Call complete to run the audit."
	if !sess.Documents.Complete() {
		msg = "Document uploaded. Both bill and policy are required before completing."
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		AuditID:   sess.ID,
		Status:    sess.Status,
		Message:   msg,
		Documents: sess.Documents,
	})
}

// store validates one uploaded file and writes it to the document store.
func (s *Server) store(r *http.Request, id, kind string, file multipart.File, header *multipart.FileHeader) (*model.DocumentRef, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !s.allowed[ext] {
		return nil, fmt.Errorf("%w: %s: file type %q not allowed", errBadUpload, kind, ext)
	}
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", errBadUpload, kind, err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %s: file exceeds %d MB", errBadUpload, kind, s.cfg.MaxUploadBytes>>20)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s: file is empty", errBadUpload, kind)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		if t := mime.TypeByExtension(ext); t != "" {
			contentType = t
		}
	}
	key := storage.UploadKey(id, kind, ext)
	if err := s.documents.Put(r.Context(), key, data, contentType); err != nil {
		return nil, fmt.Errorf("storing %s: %w", kind, err)
	}
	return &model.DocumentRef{
		Key:         key,
		Name:        filepath.Base(header.Filename),
		ContentType: contentType,
		Size:        int64(len(data)),
		SHA256:      normalize.BytesHash(data),
	}, nil
}

func (s *Server) discard(r *http.Request, keys []string) {
	if len(keys) == 0 {
		return
	}
	if err := s.documents.Delete(r.Context(), keys...); err != nil {
		s.log.Warn().Err(err).Strs("keys", keys).Msg("removing unused upload failed")
	}
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Complete(r.Context(), chi.URLParam(r, "auditID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		AuditID: sess.ID,
		Status:  sess.Status,
		Error:   sess.Error,
	})
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "auditID")
	result, err := s.sessions.Result(r.Context(), id)
	if errors.Is(err, session.ErrNotReady) {
		s.writeNotReady(w, id)
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFlagsExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "auditID")
	result, err := s.sessions.Result(r.Context(), id)
	if errors.Is(err, session.ErrNotReady) {
		s.writeNotReady(w, id)
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if _, err := export.WriteFlags(&buf, result); err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.apache.parquet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", id+"-flags.parquet"))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) writeNotReady(w http.ResponseWriter, id string) {
	sess, err := s.sessions.Status(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp := statusOf(sess)
	resp.Error = ""
	writeJSON(w, http.StatusAccepted, struct {
		statusResponse
		Detail string `json:"detail"`
	}{resp, "Audit result not ready"})
}

func statusOf(sess model.Session) statusResponse {
	return statusResponse{
		AuditID:         sess.ID,
		Status:          sess.Status,
		ProgressStep:    sess.ProgressStep,
		ProgressMessage: sess.ProgressMessage,
		Error:           sess.Error,
	}
}

// writeError maps session and upload errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrInvalidState),
		errors.Is(err, session.ErrMissingDocuments),
		errors.Is(err, errBadUpload):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
