package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// verifyRequest is the POST /api/verify body.
type verifyRequest struct {
	Text string `json:"text"`
}

// validate returns the shape violations, if any.
func (r verifyRequest) validate() []string {
	if r.Text == "" {
		return []string{"text: Text is required"}
	}
	return nil
}

type errorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid request",
			Details: []string{"body must be a JSON object"},
		})
		return
	}
	if details := req.validate(); details != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Invalid request",
			Details: details,
		})
		return
	}

	ctx := r.Context()
	if s.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.deadline)
		defer cancel()
	}

	response, err := s.runner.Run(ctx, req.Text)
	if err != nil {
		// Client went away or the deadline elapsed; nothing useful to write.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn("verification aborted", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{
				Error:   "Request timed out",
				Message: err.Error(),
			})
			return
		}
		s.logger.Error("verification failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Internal server error",
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
