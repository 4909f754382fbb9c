package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/postkit/pkg/drafts"
	"github.com/matzehuels/postkit/pkg/editor"
	"github.com/matzehuels/postkit/pkg/errors"
)

type composeOpts struct {
	draft   string
	output  string
	noStore bool
}

func (c *CLI) composeCommand() *cobra.Command {
	var opts composeOpts

	cmd := &cobra.Command{
		Use:   "compose [document]",
		Short: "Edit a document interactively in the terminal",
		Long: `Open a document, a saved draft or an empty post in a terminal editor.
Press s to save the post as a draft in the configured store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return c.runCompose(cmd.Context(), path, opts)
		},
	}

	cmd.Flags().StringVar(&opts.draft, "draft", "", "open a saved draft")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the document here on exit")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "do not connect to the draft store")
	cmd.MarkFlagsMutuallyExclusive("draft", "no-store")

	return cmd
}

func (c *CLI) runCompose(ctx context.Context, path string, opts composeOpts) error {
	if path != "" && opts.draft != "" {
		return errors.New(errors.ErrCodeInvalidArgs, "pass either a document or --draft, not both")
	}
	ed, err := c.newEditor(path)
	if err != nil {
		return err
	}

	var svc *drafts.Service
	if !opts.noStore {
		s, st, err := c.openDrafts(ctx)
		if err != nil {
			if opts.draft != "" {
				return err
			}
			printWarning("Saving disabled: %v", err)
		} else {
			defer st.Close()
			svc = s
		}
	}

	if opts.draft != "" {
		cfg, err := c.loadConfig()
		if err != nil {
			return err
		}
		doc, err := svc.Open(ctx, opts.draft, cfg.Post.Width)
		if err != nil {
			return err
		}
		src, err := c.loadPresets(cfg)
		if err != nil {
			return err
		}
		ed = editor.New(doc, c.editorOptions(cfg, src))
	}

	final, err := tea.NewProgram(NewComposeModel(ctx, ed, svc), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(ComposeModel); ok && m.DraftID != "" {
		printSuccess("Saved draft %s", m.DraftID)
	}
	if opts.output != "" {
		return writeJSON(opts.output, ed.Schema())
	}
	return nil
}
