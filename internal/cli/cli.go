package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/postkit/pkg/buildinfo"
	"github.com/matzehuels/postkit/pkg/config"
	"github.com/matzehuels/postkit/pkg/drafts"
	"github.com/matzehuels/postkit/pkg/editor"
	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/observability"
	"github.com/matzehuels/postkit/pkg/post"
	"github.com/matzehuels/postkit/pkg/presets"
	"github.com/matzehuels/postkit/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const appName = config.AppName

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// SetLogFormat switches the log output between text, json and logfmt.
func (c *CLI) SetLogFormat(name string) error {
	switch name {
	case "", "text":
		c.Logger.SetFormatter(log.TextFormatter)
	case "json":
		c.Logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		c.Logger.SetFormatter(log.LogfmtFormatter)
	default:
		return errors.New(errors.ErrCodeInvalidArgs, "unknown log format %q (want text, json or logfmt)", name)
	}
	return nil
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Postkit composes visual posts from text and image blocks",
		Long:         `Postkit is the document engine of a visual post composer: grid layouts, drag-and-snap placement, undo history and draft storage, usable from the shell, over HTTP or as MCP tools.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.snapCommand())
	root.AddCommand(c.replayCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.composeCommand())
	root.AddCommand(c.draftsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.mcpCommand())
	root.AddCommand(c.versionCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Shared Setup
// =============================================================================

// loadConfig loads the settings once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("config loaded", "path", c.configPath, "backend", cfg.Store.Backend)
	c.cfg = cfg
	return cfg, nil
}

// loadPresets returns the configured catalog, or the built-in one.
func (c *CLI) loadPresets(cfg *config.Config) (presets.Source, error) {
	if cfg.Presets.Path == "" {
		return presets.Default(), nil
	}
	return presets.Load(cfg.Presets.Path)
}

func (c *CLI) editorOptions(cfg *config.Config, src presets.Source) editor.Options {
	opts := cfg.EditorOptions()
	opts.Presets = src
	opts.Logger = c.Logger
	opts.Hooks = observability.NewLogHooks(c.Logger)
	return opts
}

// newEditor loads the document at path and opens an editor over it.
func (c *CLI) newEditor(path string) (*editor.Editor, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	src, err := c.loadPresets(cfg)
	if err != nil {
		return nil, err
	}
	var doc *post.Schema
	if path != "" {
		if doc, err = readDocument(path, cfg.Post.Width); err != nil {
			return nil, err
		}
	}
	return editor.New(doc, c.editorOptions(cfg, src)), nil
}

// openDrafts connects the configured draft store. The caller closes the
// returned store.
func (c *CLI) openDrafts(ctx context.Context) (*drafts.Service, store.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	spinner := newSpinner(ctx, fmt.Sprintf("Connecting to %s store...", cfg.Store.Backend))
	spinner.Start()
	st, err := store.Open(ctx, cfg.StoreConfig())
	spinner.Stop()
	if err != nil {
		return nil, nil, err
	}
	svc := drafts.New(st,
		drafts.WithTTL(cfg.Store.DraftTTL.Duration),
		drafts.WithHooks(observability.NewLogHooks(c.Logger)),
	)
	return svc, st, nil
}

// =============================================================================
// Document I/O
// =============================================================================

// readDocument reads a document ("-" is stdin) and arranges it at width.
// Draft exports are accepted too; they are told apart by their "nodes" key.
func readDocument(path string, width float64) (*post.Schema, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}
	var head struct {
		Nodes json.RawMessage `json:"nodes"`
	}
	if json.Unmarshal(data, &head) == nil && len(head.Nodes) > 0 {
		var e post.Export
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode export %s", path)
		}
		return post.FromExport(e, width)
	}
	doc, err := post.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	doc.Arrange(width)
	return doc, nil
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// writeJSON writes v as indented JSON to path, or to stdout when path is
// empty.
func writeJSON(path string, v any) error {
	if path == "" {
		return writeJSONTo(os.Stdout, v)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeJSONTo(f, v); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	printFile(path)
	return nil
}

func writeJSONTo(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
