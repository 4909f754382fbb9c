// Package server exposes editing sessions over HTTP.
//
// Every open document is a session in an [editor.Registry]. Clients create
// a session, dispatch actions against it, drive drag gestures, undo and
// redo, and finally export the document as a draft:
//
//	POST   /sessions                      open a session (empty, from a document or a draft)
//	GET    /sessions                      list open sessions
//	GET    /sessions/{id}                 current document and history state
//	DELETE /sessions/{id}                 close the session
//	POST   /sessions/{id}/actions         dispatch {"type": ..., "args": {...}}
//	POST   /sessions/{id}/undo            undo the last commit
//	POST   /sessions/{id}/redo            redo the last undone commit
//	POST   /sessions/{id}/layout          apply {"format": ..., "layout": ...}
//	POST   /sessions/{id}/snap-points     snap candidates for {"blockId": ..., "frame": {...}}
//	POST   /sessions/{id}/drag/start      begin a drag gesture
//	POST   /sessions/{id}/drag/move       feed a pointer update
//	POST   /sessions/{id}/drag/stop       end the gesture, committing the active snap
//	GET    /sessions/{id}/preview.svg     wireframe preview
//	POST   /sessions/{id}/export          export, saving a draft when a store is configured
//	GET    /drafts/{id}                   saved draft
//	DELETE /drafts/{id}                   delete a draft
//	GET    /healthz                       liveness
//
// Errors are JSON objects {"code": ..., "message": ...} with a status
// derived from the error code.
package server

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/postkit/pkg/drafts"
	"github.com/matzehuels/postkit/pkg/editor"
	"github.com/matzehuels/postkit/pkg/presets"
)

const (
	maxBodyBytes    = 8 << 20
	shutdownTimeout = 10 * time.Second
)

// Config wires the server's collaborators.
type Config struct {
	Sessions *editor.Registry
	// Drafts is optional. Without it, export returns the document without
	// saving and the draft routes answer UNSUPPORTED.
	Drafts *drafts.Service
	// Presets colors the wireframe preview. Defaults to presets.Default().
	Presets presets.Source
	// Width is the post width used when reopening drafts.
	Width  float64
	Logger *log.Logger
}

// Server is the HTTP front-end.
type Server struct {
	cfg    Config
	router chi.Router
}

// New builds the router.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Presets == nil {
		cfg.Presets = presets.Default()
	}
	if cfg.Sessions == nil {
		cfg.Sessions = editor.NewRegistry(editor.Options{Width: cfg.Width, Logger: cfg.Logger})
	}
	s := &Server{cfg: cfg}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Get("/", s.handleListSessions)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Post("/actions", s.handleAction)
			r.Post("/undo", s.handleUndo)
			r.Post("/redo", s.handleRedo)
			r.Post("/layout", s.handleLayout)
			r.Post("/snap-points", s.handleSnapPoints)
			r.Post("/drag/start", s.handleDragStart)
			r.Post("/drag/move", s.handleDragMove)
			r.Post("/drag/stop", s.handleDragStop)
			r.Get("/preview.svg", s.handlePreview)
			r.Post("/export", s.handleExport)
		})
	})

	r.Route("/drafts/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetDraft)
		r.Delete("/", s.handleDeleteDraft)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.cfg.Logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.cfg.Logger.Info("server stopped")
	return nil
}
