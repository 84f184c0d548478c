// Package httpapi exposes a loaded session as a local JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"taskdeck/internal/account"
	"taskdeck/internal/graphql"
	"taskdeck/internal/lifecycle"
	"taskdeck/internal/logging"
	"taskdeck/internal/service"
	"taskdeck/internal/session"
)

const (
	// maxBody caps request bodies.
	maxBody = 1 << 20

	shutdownTimeout = 5 * time.Second
)

// Backend is what the server operates on.
type Backend struct {
	Session  *session.Session
	Accounts *account.Reconciler
	Tasks    *lifecycle.Manager
	Log      logrus.FieldLogger
}

// Server serves the session over HTTP. Requests are handled one at a time
// since the session is not safe for concurrent use.
type Server struct {
	mu     sync.Mutex
	b      Backend
	log    logrus.FieldLogger
	router *mux.Router
	now    func() time.Time
}

// New creates a server.
func New(b Backend) *Server {
	log := b.Log
	if log == nil {
		log = logging.Logger
	}
	s := &Server{b: b, log: log, router: mux.NewRouter(), now: time.Now}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/account", s.getAccount).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.createTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks", s.deleteAllTasks).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/{id}", s.patchTask).Methods(http.MethodPatch)
	api.HandleFunc("/tasks/{id}", s.deleteTask).Methods(http.MethodDelete)
	s.router.Use(s.serialize, s.logRequests)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Infof("Event ID: SERVER_START_INFO, Description: serving on http://%s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("Event ID: SERVER_STOPPED, Description: server stopped")
	return nil
}

func (s *Server) serialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start),
		}).Debug("Event ID: HTTP_REQUEST, Description: request handled")
	})
}

// taskView is a task with its 1-based display position.
type taskView struct {
	Position int `json:"position"`
	service.Task
}

type taskRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Completed   *bool              `json:"completed"`
	Subtasks    *[]service.Subtask `json:"subtasks"`
}

func (req taskRequest) empty() bool {
	return req.Title == nil && req.Description == nil && req.Completed == nil && req.Subtasks == nil
}

func (req taskRequest) command(id string, now time.Time) service.UpdateTask {
	cmd := service.UpdateTask{ID: id, Title: req.Title, Description: req.Description, Subtasks: req.Subtasks}
	if req.Completed != nil {
		if *req.Completed {
			cmd.CompletedAt = &now
		} else {
			cmd.ClearCompleted = true
		}
	}
	return cmd
}

func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	acct, err := s.b.Session.RequireAccount()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acct)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request) {
	if err := s.b.Accounts.Refresh(r.Context(), s.b.Session); err != nil {
		s.writeError(w, err)
		return
	}
	ordered := s.b.Session.Ordered()
	views := make([]taskView, len(ordered))
	for i, t := range ordered {
		views[i] = taskView{Position: i + 1, Task: t}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decode(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.b.Tasks.CreateTask(r.Context(), s.b.Session)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !req.empty() {
		created, err = s.b.Tasks.UpdateTask(r.Context(), s.b.Session, req.command(created.ID, s.now()))
		if err != nil {
			s.writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) patchTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.b.Session.Task(id); !ok {
		s.writeError(w, service.ErrTaskNotFound)
		return
	}
	var req taskRequest
	if err := decode(w, r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.b.Tasks.UpdateTask(r.Context(), s.b.Session, req.command(id, s.now()))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, ok := s.b.Session.Task(id); !ok {
		s.writeError(w, service.ErrTaskNotFound)
		return
	}
	if _, err := s.b.Tasks.DeleteTask(r.Context(), s.b.Session, id, true); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteAllTasks(w http.ResponseWriter, r *http.Request) {
	if err := s.b.Tasks.DeleteAllTasks(r.Context(), s.b.Session); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidUpdate), errors.Is(err, service.ErrNoAccount):
		return http.StatusBadRequest
	case errors.Is(err, graphql.ErrUnauthorized), errors.Is(err, service.ErrMissingIdentityField):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).Error("Event ID: HTTP_BACKEND_ERROR, Description: backend call failed")
	}
	writeMessage(w, status, err.Error())
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
