// Package dot describes the row structure of a post as a Graphviz graph.
//
// Every row becomes a cluster whose blocks share a rank, rows are chained
// top to bottom with invisible edges, and floating nodes sit in a cluster
// of their own. Placeholders are drawn dashed.
//
//	src := dot.ToDOT(doc, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// This view is meant for inspecting arrangements: it shows which blocks
// share a row and in which order, not what the post looks like. Use the
// wireframe renderer for that.
package dot
