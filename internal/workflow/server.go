package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Server exposes the state of running workflows over HTTP. It is mounted by
// the ingest command when a report address is configured.
type Server struct {
	logger    *zap.Logger
	workflows map[string]*Workflow
	mu        sync.RWMutex
}

type WorkflowInfo struct {
	ID     string `json:"id"`
	State  State  `json:"state"`
	Report Report `json:"report"`
}

func NewServer(logger *zap.Logger) *Server {
	return &Server{
		logger:    logger,
		workflows: make(map[string]*Workflow),
	}
}

func (s *Server) Register(w *Workflow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.workflows[w.ID] = w
	s.logger.Info("workflow registered",
		zap.String("workflow_id", w.ID),
		zap.String("state", string(w.State.Current())))
}

func (s *Server) Unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.workflows[id]; exists {
		delete(s.workflows, id)
		s.logger.Info("workflow unregistered", zap.String("workflow_id", id))
	}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Route("/api/v1/workflows", func(r chi.Router) {
		r.Get("/", s.listWorkflows)
		r.Get("/{id}", s.getWorkflow)
	})

	return r
}

func (s *Server) listWorkflows(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workflows := make([]WorkflowInfo, 0, len(s.workflows))
	for _, wf := range s.workflows {
		workflows = append(workflows, WorkflowInfo{
			ID:     wf.ID,
			State:  wf.State.Current(),
			Report: wf.Report(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"workflows": workflows,
		"count":     len(workflows),
	})
}

func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.RLock()
	wf, exists := s.workflows[id]
	s.mu.RUnlock()

	if !exists {
		http.Error(w, "workflow not found", http.StatusNotFound)
		return
	}

	info := WorkflowInfo{
		ID:     wf.ID,
		State:  wf.State.Current(),
		Report: wf.Report(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(info)
}

func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Routes(),
	}

	s.logger.Info("starting workflow status server", zap.String("addr", addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down workflow status server")
		srv.Shutdown(context.Background())
	}()

	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}
