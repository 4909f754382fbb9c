package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/postkit/pkg/actions"
	"github.com/matzehuels/postkit/pkg/buildinfo"
	"github.com/matzehuels/postkit/pkg/editor"
	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/post"
	"github.com/matzehuels/postkit/pkg/render/wireframe"
	"github.com/matzehuels/postkit/pkg/snap"
)

// sessionView is the state returned after every session call.
type sessionView struct {
	ID      string       `json:"id"`
	Version int          `json:"version"`
	CanUndo bool         `json:"canUndo"`
	CanRedo bool         `json:"canRedo"`
	Schema  *post.Schema `json:"schema"`
}

func view(id string, ed *editor.Editor) sessionView {
	return sessionView{
		ID:      id,
		Version: ed.Version(),
		CanUndo: ed.CanUndo(),
		CanRedo: ed.CanRedo(),
		Schema:  ed.Schema().Clone(),
	}
}

type createRequest struct {
	Document json.RawMessage `json:"document,omitempty"`
	Draft    string          `json:"draft,omitempty"`
}

type actionRequest struct {
	Type actions.ActionType `json:"type"`
	Args json.RawMessage    `json:"args"`
}

type layoutRequest struct {
	Format post.Format `json:"format"`
	Layout post.Layout `json:"layout"`
}

type blockFrameRequest struct {
	BlockID string        `json:"blockId"`
	Frame   geometry.Rect `json:"frame"`
}

type historyResponse struct {
	sessionView
	Changed bool `json:"changed"`
}

type dragStopResponse struct {
	sessionView
	Snapped *snap.SnapPoint `json:"snapped,omitempty"`
}

type exportResponse struct {
	DraftID string      `json:"draftId,omitempty"`
	Export  post.Export `json:"export"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"build":    buildinfo.Get(),
		"sessions": s.cfg.Sessions.Len(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decode(r, &req, true); err != nil {
		s.writeError(w, r, err)
		return
	}

	var initial *post.Schema
	switch {
	case req.Draft != "" && len(req.Document) > 0:
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidArgs, "document and draft are mutually exclusive"))
		return
	case req.Draft != "":
		if s.cfg.Drafts == nil {
			s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no draft store configured"))
			return
		}
		doc, err := s.cfg.Drafts.Open(r.Context(), req.Draft, s.cfg.Width)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		initial = doc
	case len(req.Document) > 0:
		doc, err := post.Decode(req.Document)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		initial = doc
	}

	sess := s.cfg.Sessions.Create(initial)
	s.cfg.Logger.Info("session opened", "session", sess.ID)
	s.respond(w, r, sess, http.StatusCreated)
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sessions": s.cfg.Sessions.IDs()})
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*editor.Session, bool) {
	sess, err := s.cfg.Sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, sess *editor.Session, status int) {
	var v sessionView
	_ = sess.With(func(ed *editor.Editor) error {
		v = view(sess.ID, ed)
		return nil
	})
	writeJSON(w, status, v)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.session(w, r); ok {
		s.respond(w, r, sess, http.StatusOK)
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.cfg.Sessions.Delete(id); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.cfg.Logger.Info("session closed", "session", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req actionRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	var v sessionView
	err := sess.With(func(ed *editor.Editor) error {
		if err := ed.Do(req.Type, req.Args); err != nil {
			return err
		}
		v = view(sess.ID, ed)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, (*editor.Editor).Undo)
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.history(w, r, (*editor.Editor).Redo)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request, step func(*editor.Editor) bool) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var resp historyResponse
	err := sess.WithHistory(func(ed *editor.Editor) error {
		resp.Changed = step(ed)
		resp.sessionView = view(sess.ID, ed)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req layoutRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	var v sessionView
	err := sess.With(func(ed *editor.Editor) error {
		if err := ed.ApplyLayout(req.Format, req.Layout); err != nil {
			return err
		}
		v = view(sess.ID, ed)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSnapPoints(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req blockFrameRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	var points []snap.SnapPoint
	err := sess.With(func(ed *editor.Editor) error {
		var err error
		points, err = ed.SnapPoints(req.BlockID, req.Frame)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if points == nil {
		points = []snap.SnapPoint{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": points})
}

func (s *Server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req blockFrameRequest
	if err := decode(r, &req, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sess.Drag().Start(req.BlockID, req.Frame); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"points": sess.Drag().Points()})
}

func (s *Server) handleDragMove(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var ev editor.DragEvent
	if err := decode(r, &ev, false); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sess.Drag().Move(ev); err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := map[string]any{"active": nil}
	if p, ok := sess.Drag().Active(); ok {
		resp["active"] = p.Key
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDragStop(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	snapped, err := sess.Drag().Stop()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := dragStopResponse{Snapped: snapped}
	_ = sess.With(func(ed *editor.Editor) error {
		resp.sessionView = view(sess.ID, ed)
		return nil
	})
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	// Drag state is read before taking the session lock; the drag
	// controller locks the session itself.
	opts := []wireframe.Option{wireframe.WithPresets(s.cfg.Presets)}
	if drag := sess.Drag(); drag.Dragging() {
		active, _ := drag.Active()
		opts = append(opts, wireframe.WithGuides(drag.Points(), active.Key))
	}
	var svg []byte
	_ = sess.With(func(ed *editor.Editor) error {
		svg = wireframe.RenderSVG(ed.Schema(), append(opts, wireframe.WithWidth(ed.Width()))...)
		return nil
	})
	w.Header().Set("Content-Type", "image/svg+xml")
	_, _ = w.Write(svg)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var resp exportResponse
	_ = sess.With(func(ed *editor.Editor) error {
		resp.Export = ed.Export()
		return nil
	})
	if s.cfg.Drafts != nil {
		id, err := s.cfg.Drafts.Save(r.Context(), resp.Export)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.DraftID = id
		s.cfg.Logger.Info("draft saved", "session", sess.ID, "draft", id)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Drafts == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no draft store configured"))
		return
	}
	e, err := s.cfg.Drafts.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteDraft(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Drafts == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "no draft store configured"))
		return
	}
	if err := s.cfg.Drafts.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
