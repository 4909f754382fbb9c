// Package render turns post documents into previews.
//
// Two renderers live in subpackages:
//
//   - [wireframe] draws the document at its frames as SVG, with floating
//     nodes transformed and optional snap guides on top.
//   - [dot] describes the row structure as a Graphviz graph, which is
//     useful when debugging arrangements that do not look right.
//
// [ToPDF] and [ToPNG] convert either SVG output with the external
// rsvg-convert tool:
//
//	svg := wireframe.RenderSVG(doc)
//	png, err := render.ToPNG(svg, 2.0)
//
// [wireframe]: github.com/matzehuels/postkit/pkg/render/wireframe
// [dot]: github.com/matzehuels/postkit/pkg/render/dot
package render
