package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pbaille/tailor/internal/domain"
	"github.com/pbaille/tailor/internal/workflow"
)

// Server exposes the workflow controller to a local browser page
type Server struct {
	ctrl *workflow.Controller
	addr string
}

// New creates a new API server
func New(ctrl *workflow.Controller, addr string) *Server {
	return &Server{ctrl: ctrl, addr: addr}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	fmt.Printf("Starting server on %s\n", s.addr)
	return http.ListenAndServe(s.addr, s.Router())
}

// Router wires the routes and middleware
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(withCORS)

	r.Get("/health", s.health)
	r.Get("/state", s.state)
	r.Get("/applications/today", s.today)
	r.Post("/generate", s.generate)
	r.Post("/copy", s.copy)
	r.Post("/sidebar/toggle", s.toggleSidebar)

	return r
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) today(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"applications": s.ctrl.Snapshot().Today,
	})
}

// GenerateRequest is the request body for a generation
type GenerateRequest struct {
	Title       string `json:"job_title"`
	Description string `json:"job_description"`
	Type        string `json:"type"`
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := domain.ParseGenerationType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// a closed browser tab does not abort a running generation
	out, err := s.ctrl.Generate(context.WithoutCancel(r.Context()), req.Title, req.Description, t)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, out)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, workflow.MsgFillAllFields)
	case errors.Is(err, workflow.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadGateway, workflow.MsgGenerateFailed)
	}
}

// CopyRequest is the request body for a clipboard copy
type CopyRequest struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

func (s *Server) copy(w http.ResponseWriter, r *http.Request) {
	var req CopyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.ctrl.Copy(r.Context(), req.Text, req.Label)
	writeJSON(w, http.StatusOK, map[string]string{"copied": s.ctrl.Snapshot().Copied})
}

func (s *Server) toggleSidebar(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"sidebar_open": s.ctrl.ToggleSidebar()})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
