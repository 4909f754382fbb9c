package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/post"
)

// Options configures graph generation.
type Options struct {
	// Detailed adds kind, format, layout and frame to the labels.
	// When false, only the block ID is shown.
	Detailed bool
}

// ToDOT converts a document to Graphviz DOT source.
func ToDOT(s *post.Schema, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.3;\n")

	var prev string
	for i, row := range s.Positions {
		fmt.Fprintf(&buf, "\n  subgraph \"cluster_row_%d\" {\n", i)
		fmt.Fprintf(&buf, "    label=\"row %d\";\n    style=dashed;\n    color=grey;\n    rank=same;\n", i)
		for _, id := range row {
			writeNode(&buf, "    ", id, s.Blocks[id], opts)
		}
		buf.WriteString("  }\n")

		if len(row) == 0 {
			continue
		}
		if prev != "" {
			fmt.Fprintf(&buf, "  %q -> %q [style=invis];\n", prev, row[0])
		}
		prev = row[0]
		for j := 1; j < len(row); j++ {
			fmt.Fprintf(&buf, "  %q -> %q [style=invis];\n", row[j-1], row[j])
		}
	}

	if ids := s.InlineNodes.IDs(); len(ids) > 0 {
		buf.WriteString("\n  subgraph \"cluster_nodes\" {\n")
		buf.WriteString("    label=\"floating\";\n    style=dotted;\n    color=grey;\n")
		for _, id := range ids {
			writeNode(&buf, "    ", "node:"+id, s.InlineNodes[id].Block, opts)
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, indent, id string, b post.Block, opts Options) {
	label := fmtLabel(id, b, opts.Detailed)
	fmt.Fprintf(buf, "%s%q [%s];\n", indent, id, strings.Join(fmtAttrs(b, label), ", "))
}

func fmtLabel(id string, b post.Block, detailed bool) string {
	if !detailed || b == nil {
		return id
	}
	base := b.Base()
	parts := []string{
		fmt.Sprintf("%s %s", b.Kind(), base.Layout),
		fmt.Sprintf("format: %s", base.Format),
	}
	if base.Frame != nil {
		f := *base.Frame
		parts = append(parts, fmt.Sprintf("frame: %.0f,%.0f %.0fx%.0f", f.X, f.Y, f.Width, f.Height))
	}
	return id + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(b post.Block, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch {
	case b == nil:
		attrs = append(attrs, "color=red", "fontcolor=red")
	case post.IsImagePlaceholder(b):
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	case post.IsImageBlock(b):
		attrs = append(attrs, "fillcolor=\"#dfe3ea\"")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidArgs, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "render")
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces the Graphviz pt-sized root with a unitless one
// starting at the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
