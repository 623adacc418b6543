package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"i4.energy/across/plotctl/controller"
)

// Server handles incoming HTTP requests for interacting with the
// configured plotter controller instance
type Server struct {
	Logger     *slog.Logger
	Controller *controller.Controller
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /command", s.handleCommand)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// handleCommand processes incoming HTTP POST requests that inject one
// command line toward the plotter, as if the host had sent it over serial
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	type CommandRequest struct {
		Line string `json:"line"`
	}

	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	line := strings.TrimSpace(req.Line)
	if line == "" {
		s.sendError(w, "'line' field is required", http.StatusBadRequest)
		return
	}
	if strings.ContainsAny(line, "\r\n") {
		s.sendError(w, "'line' must be a single command line", http.StatusBadRequest)
		return
	}

	if err := s.Controller.Send(r.Context(), line); err != nil {
		s.Logger.Error("Failed to submit command", "error", err, "line", line)
		s.sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.Logger.Info("Command submitted", "line", line)
	w.WriteHeader(http.StatusAccepted)
}

// handleStatus reports the current machine state
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.Controller.State())
}
