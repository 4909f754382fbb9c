package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/matzehuels/postkit/pkg/actions"
	"github.com/matzehuels/postkit/pkg/editor"
	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/post"
	"github.com/matzehuels/postkit/pkg/render/wireframe"
	"github.com/matzehuels/postkit/pkg/snap"
)

type sessionResult struct {
	SessionID string       `json:"sessionId"`
	Version   int          `json:"version"`
	CanUndo   bool         `json:"canUndo"`
	CanRedo   bool         `json:"canRedo"`
	Schema    *post.Schema `json:"schema"`
}

func result(id string, ed *editor.Editor) sessionResult {
	return sessionResult{
		SessionID: id,
		Version:   ed.Version(),
		CanUndo:   ed.CanUndo(),
		CanRedo:   ed.CanRedo(),
		Schema:    ed.Schema().Clone(),
	}
}

func (s *Server) registerSessionTools() {
	s.mcp.AddTool(mcp.NewTool("new_session",
		mcp.WithDescription("Open an editing session. Starts empty unless a document or a saved draft is given."),
		mcp.WithString("document", mcp.Description("Document JSON {blocks, positions, inlineNodes} (optional)")),
		mcp.WithString("draftId", mcp.Description("ID of a saved draft to reopen (optional)")),
	), s.handleNewSession)

	s.mcp.AddTool(mcp.NewTool("get_schema",
		mcp.WithDescription("Return the current document of a session with its history state"),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
	), s.handleGetSchema)

	s.mcp.AddTool(mcp.NewTool("close_session",
		mcp.WithDescription("Close a session. Unsaved changes are lost."),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
	), s.handleCloseSession)

	s.mcp.AddTool(mcp.NewTool("export_draft",
		mcp.WithDescription("Export the document. When a draft store is configured the export is saved and its draft ID returned."),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
	), s.handleExportDraft)

	s.mcp.AddTool(mcp.NewTool("render_preview",
		mcp.WithDescription("Render a wireframe SVG of the document"),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
	), s.handleRenderPreview)
}

func (s *Server) registerEditTools() {
	s.mcp.AddTool(mcp.NewTool("list_actions",
		mcp.WithDescription("List the action types dispatch_action accepts"),
	), s.handleListActions)

	s.mcp.AddTool(mcp.NewTool("dispatch_action",
		mcp.WithDescription("Apply an action to the document as one undoable step"),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
		mcp.WithString("type", mcp.Description("Action type, see list_actions"), mcp.Required()),
		mcp.WithString("args", mcp.Description("Action arguments as a JSON object (optional)")),
	), s.handleDispatchAction)

	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last step"),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone step"),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
	), s.handleRedo)

	s.mcp.AddTool(mcp.NewTool("apply_layout",
		mcp.WithDescription("Arrange the grid into a canonical layout. Blocks that do not fit are removed."),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
		mcp.WithString("format", mcp.Description("post, sticker or comment"), mcp.Required()),
		mcp.WithString("layout", mcp.Description("Layout name, e.g. media or verticalMediaText"), mcp.Required()),
	), s.handleApplyLayout)

	s.mcp.AddTool(mcp.NewTool("snap_points",
		mcp.WithDescription("List the positions a block could snap into. Pass width and height to use a different frame size."),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Dragged block or node ID"), mcp.Required()),
		mcp.WithNumber("width", mcp.Description("Frame width (optional)")),
		mcp.WithNumber("height", mcp.Description("Frame height (optional)")),
	), s.handleSnapPoints)

	s.mcp.AddTool(mcp.NewTool("commit_snap",
		mcp.WithDescription("Move a block into the snap position with the given key, as returned by snap_points"),
		mcp.WithString("sessionId", mcp.Description("Session ID"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Dragged block or node ID"), mcp.Required()),
		mcp.WithString("key", mcp.Description("Snap point key"), mcp.Required()),
	), s.handleCommitSnap)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleNewSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	doc, draftID := getString(args, "document"), getString(args, "draftId")

	var initial *post.Schema
	switch {
	case doc != "" && draftID != "":
		return s.toolError("new_session", errors.New(errors.ErrCodeInvalidArgs, "document and draftId are mutually exclusive"))
	case draftID != "":
		if s.drafts == nil {
			return s.toolError("new_session", errors.New(errors.ErrCodeUnsupported, "no draft store configured"))
		}
		schema, err := s.drafts.Open(ctx, draftID, s.width)
		if err != nil {
			return s.toolError("new_session", err)
		}
		initial = schema
	case doc != "":
		schema, err := post.Decode([]byte(doc))
		if err != nil {
			return s.toolError("new_session", err)
		}
		initial = schema
	}

	sess := s.sessions.Create(initial)
	s.logger.Info("session opened", "session", sess.ID, "via", "mcp")
	return s.withSession("new_session", sess.ID, func(ed *editor.Editor) (any, error) {
		return result(sess.ID, ed), nil
	})
}

// withSession runs f on the session named by id and returns its result as
// JSON.
func (s *Server) withSession(tool, id string, f func(*editor.Editor) (any, error)) (*mcp.CallToolResult, error) {
	return s.locked(tool, id, (*editor.Session).With, f)
}

// locked runs f through lock, which is Session.With or Session.WithHistory.
func (s *Server) locked(tool, id string, lock func(*editor.Session, func(*editor.Editor) error) error, f func(*editor.Editor) (any, error)) (*mcp.CallToolResult, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return s.toolError(tool, err)
	}
	var out any
	err = lock(sess, func(ed *editor.Editor) error {
		var err error
		out, err = f(ed)
		return err
	})
	if err != nil {
		return s.toolError(tool, err)
	}
	if text, ok := out.(string); ok {
		return textResult(text), nil
	}
	return jsonResult(out)
}

func (s *Server) handleGetSchema(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := getString(req.GetArguments(), "sessionId")
	return s.withSession("get_schema", id, func(ed *editor.Editor) (any, error) {
		return result(id, ed), nil
	})
}

func (s *Server) handleCloseSession(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := getString(req.GetArguments(), "sessionId")
	if err := s.sessions.Delete(id); err != nil {
		return s.toolError("close_session", err)
	}
	return textResult("Session " + id + " closed"), nil
}

func (s *Server) handleExportDraft(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := getString(req.GetArguments(), "sessionId")
	sess, err := s.sessions.Get(id)
	if err != nil {
		return s.toolError("export_draft", err)
	}
	var export post.Export
	_ = sess.With(func(ed *editor.Editor) error {
		export = ed.Export()
		return nil
	})

	out := map[string]any{"export": export}
	if s.drafts != nil {
		draftID, err := s.drafts.Save(ctx, export)
		if err != nil {
			return s.toolError("export_draft", err)
		}
		out["draftId"] = draftID
		s.logger.Info("draft saved", "session", id, "draft", draftID)
	}
	return jsonResult(out)
}

func (s *Server) handleRenderPreview(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := getString(req.GetArguments(), "sessionId")
	return s.withSession("render_preview", id, func(ed *editor.Editor) (any, error) {
		svg := wireframe.RenderSVG(ed.Schema(), wireframe.WithWidth(ed.Width()), wireframe.WithPresets(s.presets))
		return string(svg), nil
	})
}

func (s *Server) handleListActions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reg := actions.NewRegistry(actions.Env{Presets: s.presets})
	var b strings.Builder
	for _, t := range reg.Types() {
		spec := reg.Spec(t)
		b.WriteString(string(t))
		if spec.Description != "" {
			b.WriteString(": " + spec.Description)
		}
		b.WriteString("\n")
	}
	return textResult(b.String()), nil
}

func (s *Server) handleDispatchAction(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id := getString(args, "sessionId")
	typ := actions.ActionType(getString(args, "type"))
	raw := getString(args, "args")
	if raw == "" {
		raw = "{}"
	}
	if !json.Valid([]byte(raw)) {
		return s.toolError("dispatch_action", errors.New(errors.ErrCodeInvalidArgs, "args is not valid JSON"))
	}
	return s.withSession("dispatch_action", id, func(ed *editor.Editor) (any, error) {
		if err := ed.Do(typ, json.RawMessage(raw)); err != nil {
			return nil, err
		}
		return result(id, ed), nil
	})
}

func (s *Server) handleUndo(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.step("undo", req, (*editor.Editor).Undo)
}

func (s *Server) handleRedo(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.step("redo", req, (*editor.Editor).Redo)
}

func (s *Server) step(tool string, req mcp.CallToolRequest, f func(*editor.Editor) bool) (*mcp.CallToolResult, error) {
	id := getString(req.GetArguments(), "sessionId")
	return s.locked(tool, id, (*editor.Session).WithHistory, func(ed *editor.Editor) (any, error) {
		if !f(ed) {
			return "Nothing to " + tool, nil
		}
		return result(id, ed), nil
	})
}

func (s *Server) handleApplyLayout(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id := getString(args, "sessionId")
	format := post.Format(getString(args, "format"))
	layout := post.Layout(getString(args, "layout"))
	return s.withSession("apply_layout", id, func(ed *editor.Editor) (any, error) {
		if err := ed.ApplyLayout(format, layout); err != nil {
			return nil, err
		}
		return result(id, ed), nil
	})
}

// snapSummary leaves out the candidate documents, which are large and only
// needed to commit.
type snapSummary struct {
	Key       string         `json:"key"`
	Direction snap.Direction `json:"direction"`
	Indicator geometry.Point `json:"indicator"`
	Frame     geometry.Rect  `json:"frame"`
}

func (s *Server) snapPoints(ed *editor.Editor, args map[string]any) ([]snap.SnapPoint, error) {
	blockID := getString(args, "blockId")
	b, ok := ed.Schema().Block(blockID)
	if !ok {
		return nil, errors.New(errors.ErrCodeBlockNotFound, "block %q not found", blockID)
	}
	frame := b.Base().FrameRect()
	frame.Width = getFloat(args, "width", frame.Width)
	frame.Height = getFloat(args, "height", frame.Height)
	return ed.SnapPoints(blockID, frame)
}

func (s *Server) handleSnapPoints(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	return s.withSession("snap_points", getString(args, "sessionId"), func(ed *editor.Editor) (any, error) {
		points, err := s.snapPoints(ed, args)
		if err != nil {
			return nil, err
		}
		out := make([]snapSummary, 0, len(points))
		for _, p := range points {
			out = append(out, snapSummary{Key: p.Key, Direction: p.Direction, Indicator: p.Indicator, Frame: p.Background})
		}
		return out, nil
	})
}

func (s *Server) handleCommitSnap(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, key := getString(args, "sessionId"), getString(args, "key")
	return s.withSession("commit_snap", id, func(ed *editor.Editor) (any, error) {
		points, err := s.snapPoints(ed, args)
		if err != nil {
			return nil, err
		}
		for _, p := range points {
			if p.Key == key {
				if err := ed.CommitSnap(getString(args, "blockId"), p); err != nil {
					return nil, err
				}
				return result(id, ed), nil
			}
		}
		return nil, errors.New(errors.ErrCodeInvalidArgs, "no snap point with key %q", key)
	})
}
