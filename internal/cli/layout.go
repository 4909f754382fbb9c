package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/postkit/pkg/post"
)

// previewCols is the terminal width of a full-width block in previews.
const previewCols = 48

type layoutOpts struct {
	format  string
	layout  string
	output  string
	preview bool
}

func (c *CLI) layoutCommand() *cobra.Command {
	opts := layoutOpts{format: string(post.FormatPost)}

	cmd := &cobra.Command{
		Use:   "layout [document]",
		Short: "Arrange a document into a canonical layout",
		Long: `Arrange the grid blocks of a document into one of the canonical layouts.

Existing blocks are reused in reading order. Missing slots are filled with
placeholders and blocks that do not fit are removed.

Layouts: ` + strings.Join(layoutNames(), ", "),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "post format: post, sticker, comment")
	cmd.Flags().StringVarP(&opts.layout, "layout", "l", "", "layout name (required)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "print a terminal preview instead of JSON")
	_ = cmd.MarkFlagRequired("layout")
	_ = cmd.RegisterFlagCompletionFunc("layout", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return layoutNames(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func (c *CLI) runLayout(path string, opts layoutOpts) error {
	ed, err := c.newEditor(path)
	if err != nil {
		return err
	}
	before := len(ed.Schema().Blocks)
	if err := ed.ApplyLayout(post.Format(opts.format), post.Layout(opts.layout)); err != nil {
		return err
	}
	doc := ed.Schema()
	c.Logger.Debug("layout applied", "layout", opts.layout, "blocks", len(doc.Blocks), "was", before)

	if opts.preview {
		fmt.Println(StyleTitle.Render(opts.layout))
		fmt.Println(gridView(doc, ed.Width(), previewCols, ""))
		printStats(doc)
		return nil
	}
	return writeJSON(opts.output, doc)
}

func layoutNames() []string {
	names := make([]string, len(post.Layouts))
	for i, l := range post.Layouts {
		names[i] = string(l)
	}
	return names
}
