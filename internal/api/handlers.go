package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/Veraticus/invoice-memory/internal/common"
	"github.com/Veraticus/invoice-memory/internal/dialect"
)

// LearnRequest is the body of POST /learn.
type LearnRequest struct {
	OriginalInvoice json.RawMessage `json:"originalInvoice"`
	FinalInvoice    json.RawMessage `json:"finalInvoice"`
}

// ResolveRequest is the body of POST /resolve.
type ResolveRequest struct {
	Success *bool  `json:"success"`
	Context string `json:"context"`
}

// ResetResponse is returned by POST /reset.
type ResetResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// Process handles POST /process.
func (s *Server) Process(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	invoice, err := dialect.Decode(body)
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	result, err := s.pipeline.Process(r.Context(), invoice)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Learn handles POST /learn.
func (s *Server) Learn(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	var req LearnRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendError(w, r, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		return
	}
	if len(req.OriginalInvoice) == 0 || len(req.FinalInvoice) == 0 {
		s.sendError(w, r, fmt.Errorf("%w: originalInvoice and finalInvoice are required", common.ErrInvalidInput))
		return
	}

	original, err := dialect.Decode(req.OriginalInvoice)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	final, err := dialect.Decode(req.FinalInvoice)
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	result, err := s.pipeline.Learn(r.Context(), original, final)
	if err != nil {
		s.sendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Memory handles GET /memory.
func (s *Server) Memory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.pipeline.Store().Snapshot())
}

// Reset handles POST /reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.Reset(r.Context()); err != nil {
		s.sendError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ResetResponse{Success: true, Message: "Memory cleared"})
}

// Resolve handles POST /resolve.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.sendError(w, r, err)
		return
	}

	var req ResolveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendError(w, r, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		return
	}
	if req.Context == "" || req.Success == nil {
		s.sendError(w, r, fmt.Errorf("%w: context and success are required", common.ErrInvalidInput))
		return
	}

	store := s.pipeline.Store()
	if err := store.RecordResolution(r.Context(), req.Context, *req.Success); err != nil {
		s.sendError(w, r, err)
		return
	}

	correction, _ := store.FindCorrection(req.Context)
	writeJSON(w, http.StatusOK, correction)
}

// Health handles GET /health.
func (s *Server) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, fmt.Errorf("request body exceeds %d bytes: %w", tooLarge.Limit, err)
		}
		return nil, fmt.Errorf("%w: failed to read body: %v", common.ErrInvalidInput, err)
	}
	return body, nil
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, common.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// sendError sends an error response.
func (s *Server) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		common.LogError(err, "Request failed", common.Fields{
			"path":       r.URL.Path,
			"request_id": RequestIDFrom(r.Context()),
		})
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}
