package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mattjoyce/execdir/internal/log"
	"github.com/mattjoyce/execdir/internal/protocol"
)

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		RequestsTotal: atomic.LoadUint64(&s.requests),
	})
}

// handleRPC handles POST /rpc. The body is one JSON-RPC request; the reply
// is one JSON-RPC response, or 204 for notifications.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	line := bytes.TrimSpace(body)
	if len(line) == 0 {
		s.writeError(w, http.StatusBadRequest, "empty request body")
		return
	}

	reqID := middleware.GetReqID(r.Context())
	logger := log.WithRequest(reqID).With("component", "api")

	s.mu.Lock()
	atomic.AddUint64(&s.requests, 1)
	resp := s.handler.Handle(r.Context(), line)
	s.mu.Unlock()

	if resp == nil {
		logger.Debug("notification accepted")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := protocol.EncodeResponse(w, resp); err != nil {
		logger.Error("failed to write rpc response", "error", err)
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
