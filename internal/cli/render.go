package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/postkit/pkg/editor"
	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/render"
	"github.com/matzehuels/postkit/pkg/render/dot"
	"github.com/matzehuels/postkit/pkg/render/wireframe"
)

const (
	vizWireframe = "wireframe" // frames, nodes and guides as SVG shapes
	vizDot       = "dot"       // row/block structure laid out by graphviz
)

type renderOpts struct {
	output   string
	vizType  string
	format   string
	detailed bool
	scale    float64
	guides   string // block whose snap guides are drawn
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{vizType: vizWireframe, format: "svg", scale: 2}

	cmd := &cobra.Command{
		Use:   "render [document]",
		Short: "Render a document preview to SVG, PDF or PNG",
		Long: `Render a structural preview of a document.

The wireframe type draws block frames, floating nodes and, with --guides,
the snap positions of a block. The dot type draws the row and block
structure with graphviz. PDF and PNG output need rsvg-convert.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.vizType != vizWireframe && opts.vizType != vizDot {
				return errors.New(errors.ErrCodeInvalidArgs, "invalid type: %s (must be 'wireframe' or 'dot')", opts.vizType)
			}
			if !slices.Contains(render.Formats, opts.format) {
				return errors.New(errors.ErrCodeInvalidArgs, "invalid format: %s (must be one of %s)", opts.format, strings.Join(render.Formats, ", "))
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input name with the format extension)")
	cmd.Flags().StringVarP(&opts.vizType, "type", "t", opts.vizType, "preview type: wireframe, dot")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg, pdf, png")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show block details (dot)")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG zoom factor")
	cmd.Flags().StringVar(&opts.guides, "guides", "", "draw the snap guides of this block (wireframe)")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)

	ed, err := c.newEditor(input)
	if err != nil {
		return err
	}
	logger.Infof("Rendering %s", input)

	svg, err := c.renderSVG(ctx, ed, opts)
	if err != nil {
		return err
	}
	logger.Debugf("Generated svg: %d bytes", len(svg))

	data := svg
	if opts.format != "svg" {
		spinner := newSpinner(ctx, fmt.Sprintf("Converting to %s...", opts.format))
		spinner.Start()
		data, err = render.Convert(svg, opts.format, opts.scale)
		spinner.Stop()
		if err != nil {
			return err
		}
	}

	path := opts.output
	if path == "" {
		if input == "-" {
			_, err := os.Stdout.Write(data)
			return err
		}
		path = strings.TrimSuffix(input, filepath.Ext(input)) + "." + opts.format
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	printSuccess("Rendered %s", opts.vizType)
	printFile(path)
	return nil
}

func (c *CLI) renderSVG(ctx context.Context, ed *editor.Editor, opts renderOpts) ([]byte, error) {
	doc := ed.Schema()
	if opts.vizType == vizDot {
		return dot.RenderSVG(ctx, dot.ToDOT(doc, dot.Options{Detailed: opts.detailed}))
	}

	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	src, err := c.loadPresets(cfg)
	if err != nil {
		return nil, err
	}
	wopts := []wireframe.Option{wireframe.WithWidth(ed.Width()), wireframe.WithPresets(src)}
	if opts.guides != "" {
		points, err := ed.SnapPoints(opts.guides, geometry.Rect{})
		if err != nil {
			return nil, err
		}
		wopts = append(wopts, wireframe.WithGuides(points, ""))
	}
	return wireframe.RenderSVG(doc, wopts...), nil
}
