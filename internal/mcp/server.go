// Package mcpserver exposes editing sessions as MCP tools, so an agent can
// open a post, dispatch actions, arrange it and save it as a draft.
package mcpserver

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/matzehuels/postkit/pkg/buildinfo"
	"github.com/matzehuels/postkit/pkg/drafts"
	"github.com/matzehuels/postkit/pkg/editor"
	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/post"
	"github.com/matzehuels/postkit/pkg/presets"
)

// Deps holds the collaborators passed in by the command layer.
type Deps struct {
	Sessions *editor.Registry
	// Drafts is optional; without it export_draft only returns the export.
	Drafts  *drafts.Service
	Presets presets.Source
	Width   float64
	Logger  *log.Logger
}

// Server is the MCP server.
type Server struct {
	mcp      *server.MCPServer
	sessions *editor.Registry
	drafts   *drafts.Service
	presets  presets.Source
	width    float64
	logger   *log.Logger
}

// New creates the server with every tool registered.
func New(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(io.Discard)
	}
	if deps.Width <= 0 {
		deps.Width = post.DefaultWidth
	}
	if deps.Presets == nil {
		deps.Presets = presets.Default()
	}
	if deps.Sessions == nil {
		deps.Sessions = editor.NewRegistry(editor.Options{Width: deps.Width, Presets: deps.Presets, Logger: deps.Logger})
	}
	s := &Server{
		sessions: deps.Sessions,
		drafts:   deps.Drafts,
		presets:  deps.Presets,
		width:    deps.Width,
		logger:   deps.Logger,
	}
	s.mcp = server.NewMCPServer(
		"postkit",
		buildinfo.Version,
		server.WithToolCapabilities(false),
	)
	s.registerSessionTools()
	s.registerEditTools()
	return s
}

// ServeStdio serves on stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio")
	return server.ServeStdio(s.mcp)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// toolError reports a domain error to the agent as a failed tool call
// rather than a protocol error.
func (s *Server) toolError(tool string, err error) (*mcp.CallToolResult, error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	s.logger.Debug("tool failed", "tool", tool, "code", code, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s: %s", code, errors.UserMessage(err))), nil
}

func getFloat(args map[string]any, key string, fallback float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return fallback
}

func getString(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}
