package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"memegen/internal/domain"
	"memegen/internal/infra"
	"memegen/internal/session"
)

// App holds the dependencies shared by the HTTP handlers.
type App struct {
	Sessions       *session.Store
	Logger         infra.Logger
	MaxUploadBytes int64

	mu       sync.Mutex
	draining bool
	inflight sync.WaitGroup
}

func NewApp(sessions *session.Store, logger *infra.Logger, maxUploadBytes int64) *App {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &App{Sessions: sessions, Logger: l, MaxUploadBytes: maxUploadBytes}
}

// Wait blocks until background generations started by the handlers finish.
func (a *App) Wait() {
	a.inflight.Wait()
}

// Drain stops accepting generations and waits for running ones until ctx is
// done.
func (a *App) Drain(ctx context.Context) error {
	a.mu.Lock()
	a.draining = true
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// track registers a background generation unless the app is draining.
func (a *App) track() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.draining {
		return false
	}
	a.inflight.Add(1)
	return true
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// session resolves the {id} path parameter. It writes the 404 itself.
func (a *App) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := a.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "session not found")
			return nil, false
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load session")
		return nil, false
	}
	return sess, true
}
