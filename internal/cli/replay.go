package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/postkit/pkg/actions"
	"github.com/matzehuels/postkit/pkg/editor"
	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/history"
)

// Step operations.
const (
	opDo         = "do"
	opUndo       = "undo"
	opRedo       = "redo"
	opBeginGroup = "begin_group"
	opEndGroup   = "end_group"
)

// Script is a scripted editing session, written in TOML or JSON:
//
//	document = "post.json"
//
//	[[steps]]
//	action = "insertTextNode"
//	args = { id = "title", x = 20, y = 40, text = "Hello" }
//
//	[[steps]]
//	op = "undo"
type Script struct {
	// Document is the starting document, relative to the script. Empty
	// starts from an empty post.
	Document string `toml:"document" json:"document"`
	Steps    []Step `toml:"steps" json:"steps"`
}

// Step is one entry of a script. Op defaults to "do" when Action is set.
type Step struct {
	Op     string         `toml:"op" json:"op"`
	Action string         `toml:"action" json:"action"`
	Args   map[string]any `toml:"args" json:"args"`
}

func (s Step) op() string {
	if s.Op == "" && s.Action != "" {
		return opDo
	}
	return s.Op
}

// parseScript decodes a script; TOML is chosen by the .toml extension.
func parseScript(data []byte, name string) (*Script, error) {
	var sc Script
	var err error
	if strings.EqualFold(filepath.Ext(name), ".toml") {
		err = toml.Unmarshal(data, &sc)
	} else {
		err = json.Unmarshal(data, &sc)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgs, err, "parse script %s", name)
	}
	for i, st := range sc.Steps {
		switch st.op() {
		case opDo:
			if st.Action == "" {
				return nil, errors.New(errors.ErrCodeInvalidArgs, "step %d: action is required", i+1)
			}
		case opUndo, opRedo, opBeginGroup, opEndGroup:
		default:
			return nil, errors.New(errors.ErrCodeInvalidArgs, "step %d: unknown op %q", i+1, st.Op)
		}
	}
	return &sc, nil
}

// runScript applies the steps in order and stops at the first failing
// action. Undo and redo with nothing to step over are skipped.
func runScript(ctx context.Context, ed *editor.Editor, sc *Script) error {
	logger := loggerFromContext(ctx)
	for i, st := range sc.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch st.op() {
		case opDo:
			args := json.RawMessage("{}")
			if len(st.Args) > 0 {
				data, err := json.Marshal(st.Args)
				if err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
				args = data
			}
			if err := ed.Do(actions.ActionType(st.Action), args); err != nil {
				return fmt.Errorf("step %d (%s): %w", i+1, st.Action, err)
			}
		case opUndo:
			if !ed.Undo() {
				logger.Debug("nothing to undo", "step", i+1)
			}
		case opRedo:
			if !ed.Redo() {
				logger.Debug("nothing to redo", "step", i+1)
			}
		case opBeginGroup:
			ed.SetUndoGroup(true)
		case opEndGroup:
			ed.SetUndoGroup(false)
		}
	}
	ed.SetUndoGroup(false)
	return nil
}

type replayOpts struct {
	document string
	output   string
	history  bool
	preview  bool
}

func (c *CLI) replayCommand() *cobra.Command {
	var opts replayOpts

	cmd := &cobra.Command{
		Use:   "replay [script]",
		Short: "Run an action script against a document",
		Long: `Run a TOML or JSON script of actions, undo and redo steps against a
document and write the result. Steps between begin_group and end_group are
undone together.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runReplay(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.document, "document", "d", "", "starting document (overrides the script)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.history, "history", false, "print the undo stack instead of the document")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "print a terminal preview instead of the document")

	return cmd
}

func (c *CLI) runReplay(ctx context.Context, path string, opts replayOpts) error {
	data, err := readInput(path)
	if err != nil {
		return err
	}
	sc, err := parseScript(data, path)
	if err != nil {
		return err
	}

	doc := opts.document
	if doc == "" && sc.Document != "" {
		doc = sc.Document
		if !filepath.IsAbs(doc) && path != "-" {
			doc = filepath.Join(filepath.Dir(path), doc)
		}
	}
	ed, err := c.newEditor(doc)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	if err := runScript(ctx, ed, sc); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Replayed %s", plural(len(sc.Steps), "step")))

	switch {
	case opts.history:
		fmt.Println(historyTable(ed.Commits()))
		return nil
	case opts.preview:
		fmt.Println(gridView(ed.Schema(), ed.Width(), previewCols, ""))
		printStats(ed.Schema())
		return nil
	}
	return writeJSON(opts.output, ed.Schema())
}

func historyTable(commits []history.Commit) string {
	rows := make([][]string, len(commits))
	for i, cm := range commits {
		rows[i] = []string{strconv.Itoa(cm.Version), cm.Action, strconv.Itoa(len(cm.Patches))}
	}
	header := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Version", "Action", "Patches").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return header
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}
