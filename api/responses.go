package api

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Code int    `json:"code"`
	Text string `json:"text"`
}

func (s *Server) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("[api] failed to encode response: %v", err)
	}
}

func (s *Server) badRequestResponse(w http.ResponseWriter, err error) {
	s.sendJSON(w, http.StatusBadRequest, errorResponse{Code: http.StatusBadRequest, Text: err.Error()})
}

func (s *Server) unavailableResponse(w http.ResponseWriter, err error) {
	s.logger.Error("[api] dataset unavailable: %v", err)
	s.sendJSON(w, http.StatusServiceUnavailable, errorResponse{
		Code: http.StatusServiceUnavailable,
		Text: "dataset unavailable",
	})
}

func (s *Server) serverErrorResponse(w http.ResponseWriter, err error) {
	s.logger.Error("[api] %v", err)
	s.sendJSON(w, http.StatusInternalServerError, errorResponse{
		Code: http.StatusInternalServerError,
		Text: "internal server error",
	})
}
