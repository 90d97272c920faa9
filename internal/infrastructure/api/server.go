// Package api exposes the command pipeline over HTTP. The response body is
// identical to what the interactive loop prints: one Response shape for every
// caller.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/doeshing/opsgpt/internal/application/agent"
	"github.com/doeshing/opsgpt/internal/domain"
	"github.com/doeshing/opsgpt/internal/ports"
)

// Server is the HTTP surface over the agent service.
type Server struct {
	service  *agent.Service
	registry ports.Registry
	state    ports.StateRepository
	logger   ports.Logger
	server   *http.Server
}

// NewServer builds the HTTP surface on the given listen address.
func NewServer(addr string, service *agent.Service, registry ports.Registry, state ports.StateRepository, logger ports.Logger) *Server {
	s := &Server{
		service:  service,
		registry: registry,
		state:    state,
		logger:   logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/command", s.handleCommand)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/capabilities", s.handleCapabilities)

	s.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("api listening", map[string]any{"addr": s.server.Addr})
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

type commandRequest struct {
	Command string `json:"command"`
	Mode    string `json:"mode,omitempty"`
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, domain.Response{
			Success: false,
			Error:   "invalid request body: " + err.Error(),
		})
		return
	}
	if strings.TrimSpace(req.Command) == "" {
		writeJSON(w, http.StatusBadRequest, domain.Response{
			Success: false,
			Error:   "command is required",
		})
		return
	}

	resp := s.service.Process(r.Context(), req.Command, domain.ParseMode(req.Mode))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.state.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"session_id":  snap.SessionID,
		"environment": snap.Environment,
		"uptime":      time.Since(snap.SessionStart).Round(time.Second).String(),
	})
}

func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"plugins": s.registry.Descriptors(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
