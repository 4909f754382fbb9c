package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/snap"
)

type snapOpts struct {
	block  string
	width  float64
	height float64
	commit string
	output string
}

func (c *CLI) snapCommand() *cobra.Command {
	var opts snapOpts

	cmd := &cobra.Command{
		Use:   "snap [document]",
		Short: "List or commit the snap positions of a block",
		Long: `List every position a block could be dropped into, relative to the other
grid blocks. Pass --commit with one of the listed keys to move the block there
and write the resulting document.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnap(args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.block, "block", "b", "", "dragged block or node id (required)")
	cmd.Flags().Float64Var(&opts.width, "width", 0, "override the dragged frame width")
	cmd.Flags().Float64Var(&opts.height, "height", 0, "override the dragged frame height")
	cmd.Flags().StringVar(&opts.commit, "commit", "", "commit the snap point with this key")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file for --commit (default stdout)")
	_ = cmd.MarkFlagRequired("block")

	return cmd
}

func (c *CLI) runSnap(path string, opts snapOpts) error {
	ed, err := c.newEditor(path)
	if err != nil {
		return err
	}
	b, ok := ed.Schema().Block(opts.block)
	if !ok {
		return errors.New(errors.ErrCodeBlockNotFound, "block %q not found", opts.block)
	}
	frame := b.Base().FrameRect()
	if opts.width > 0 {
		frame.Width = opts.width
	}
	if opts.height > 0 {
		frame.Height = opts.height
	}

	points, err := ed.SnapPoints(opts.block, frame)
	if err != nil {
		return err
	}
	c.Logger.Debug("snap points computed", "block", opts.block, "count", len(points))

	if opts.commit == "" {
		if len(points) == 0 {
			printWarning("No snap positions for %s", opts.block)
			return nil
		}
		fmt.Println(snapTable(points))
		printNextStep("Commit one", fmt.Sprintf("%s snap %s --block %s --commit '%s'", appName, path, opts.block, points[0].Key))
		return nil
	}

	for _, p := range points {
		if p.Key != opts.commit {
			continue
		}
		if err := ed.CommitSnap(opts.block, p); err != nil {
			return err
		}
		return writeJSON(opts.output, ed.Schema())
	}
	return errors.New(errors.ErrCodeInvalidArgs, "no snap point with key %q", opts.commit)
}

func snapTable(points []snap.SnapPoint) string {
	rows := make([][]string, len(points))
	for i, p := range points {
		rows[i] = []string{p.Key, string(p.Direction), fmtPoint(p.Indicator), fmtRect(p.Background)}
	}
	header := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Key", "Side", "Guide", "Frame").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return header
			}
			if col == 0 {
				return StyleHighlight
			}
			return StyleDim
		}).
		Render()
}

func fmtPoint(p geometry.Point) string {
	return fmt.Sprintf("%.0f,%.0f", p.X, p.Y)
}

func fmtRect(r geometry.Rect) string {
	return fmt.Sprintf("%.0f,%.0f %.0fx%.0f", r.X, r.Y, r.Width, r.Height)
}
