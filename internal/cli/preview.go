package cli

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/postkit/pkg/post"
)

const minCellWidth = 4

var (
	styleCellText        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorCyan)
	styleCellImage       = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(colorGreen)
	styleCellPlaceholder = lipgloss.NewStyle().Border(lipgloss.HiddenBorder()).Foreground(colorDim)
	styleCellSelected    = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(colorYellow)
)

// gridView draws the rows of s as boxes, cols characters wide for the
// full post width. The selected block gets a thick border. Floating nodes
// are listed below the grid.
func gridView(s *post.Schema, width float64, cols int, selected string) string {
	if len(s.Positions) == 0 && len(s.InlineNodes) == 0 {
		return StyleDim.Render("(empty post)")
	}

	var rows []string
	for _, row := range s.Positions {
		cells := make([]string, 0, len(row))
		for _, id := range row {
			cells = append(cells, cellView(id, s.Blocks[id], width, cols, id == selected))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	ids := make([]string, 0, len(s.InlineNodes))
	for id := range s.InlineNodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n := s.InlineNodes[id]
		marker := "◆"
		if id == selected {
			marker = StyleWarning.Render("◆")
		}
		rows = append(rows, fmt.Sprintf("%s %s %s %s",
			marker, id,
			StyleDim.Render(fmt.Sprintf("(%.0f,%.0f)", n.Position.X, n.Position.Y)),
			blockLabel(n.Block)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func cellView(id string, b post.Block, width float64, cols int, selected bool) string {
	inner := minCellWidth
	if b != nil && width > 0 {
		frac := b.Base().FrameRect().Width / width
		inner = max(minCellWidth, int(math.Round(frac*float64(cols)))-2)
	}

	style := styleCellPlaceholder
	switch v := b.(type) {
	case *post.TextBlock:
		style = styleCellText
	case *post.ImageBlock:
		if v.Value != nil {
			style = styleCellImage
		}
	}
	if selected {
		style = styleCellSelected
	}
	label := blockLabel(b)
	if label == "" {
		label = id
	}
	return style.Width(inner).Render(clip(label, inner))
}

// blockLabel is the one-line description shown inside a cell.
func blockLabel(b post.Block) string {
	switch v := b.(type) {
	case *post.TextBlock:
		if v.Value == "" {
			return "¶"
		}
		return "¶ " + strings.ReplaceAll(v.Value, "\n", " ")
	case *post.ImageBlock:
		if v.Value == nil {
			return "+ image"
		}
		size := v.IntrinsicSize()
		return fmt.Sprintf("▣ %.0f×%.0f", size.Width, size.Height)
	}
	return "?"
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
