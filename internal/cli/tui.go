package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/postkit/pkg/actions"
	"github.com/matzehuels/postkit/pkg/drafts"
	"github.com/matzehuels/postkit/pkg/editor"
	"github.com/matzehuels/postkit/pkg/post"
)

var (
	composeHelpStyle   = lipgloss.NewStyle().Foreground(colorDim)
	composeStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
	composeErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

var (
	composeColors = []string{"", "#111111", "#ffffff", "#e4572e", "#2e86ab"}
	composeAligns = []string{"left", "center", "right"}
)

// =============================================================================
// ComposeModel - Interactive document editing
// =============================================================================

// ComposeModel is the bubbletea model behind `postkit compose`. Every key
// press maps to one editor action, so undo and redo step over exactly what
// the user did.
type ComposeModel struct {
	ed     *editor.Editor
	drafts *drafts.Service
	ctx    context.Context

	Cursor  int
	Status  string
	Err     bool
	DraftID string
	Cols    int

	layoutIdx int
	nodeCount int
}

type savedMsg struct {
	id  string
	err error
}

// NewComposeModel creates the model over ed. svc may be nil, which
// disables saving.
func NewComposeModel(ctx context.Context, ed *editor.Editor, svc *drafts.Service) ComposeModel {
	return ComposeModel{ed: ed, drafts: svc, ctx: ctx, Cols: previewCols, layoutIdx: -1}
}

func (m ComposeModel) Init() tea.Cmd {
	return nil
}

// selectable lists grid blocks in reading order, then nodes by id.
func (m ComposeModel) selectable() []string {
	s := m.ed.Schema()
	ids := s.Positions.IDs()
	nodes := make([]string, 0, len(s.InlineNodes))
	for id := range s.InlineNodes {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)
	return append(ids, nodes...)
}

// Selected returns the id under the cursor, or "" for an empty post.
func (m ComposeModel) Selected() string {
	ids := m.selectable()
	if len(ids) == 0 {
		return ""
	}
	return ids[min(m.Cursor, len(ids)-1)]
}

func (m ComposeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case tea.WindowSizeMsg:
		m.Cols = max(24, min(msg.Width-4, 96))
	case savedMsg:
		if msg.err != nil {
			m.setStatus(msg.err)
			return m, nil
		}
		m.DraftID = msg.id
		m.Status, m.Err = "Saved draft "+msg.id, false
	}
	return m, nil
}

func (m ComposeModel) handleKey(key string) (tea.Model, tea.Cmd) {
	sel := m.Selected()
	switch key {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.selectable())-1 {
			m.Cursor++
		}
	case "u", "ctrl+z":
		if !m.ed.Undo() {
			m.Status, m.Err = "Nothing to undo", false
		}
	case "r", "ctrl+y":
		if !m.ed.Redo() {
			m.Status, m.Err = "Nothing to redo", false
		}
	case "l":
		m.layoutIdx = (m.layoutIdx + 1) % len(post.Layouts)
		l := post.Layouts[m.layoutIdx]
		m.setStatus(m.ed.ApplyLayout(post.FormatPost, l))
		if !m.Err {
			m.Status = "Layout " + string(l)
		}
	case "t":
		m.nodeCount++
		m.do(actions.InsertTextNode, actions.InsertTextNodeArgs{
			X:    20,
			Y:    20 + float64(m.nodeCount)*40,
			Text: fmt.Sprintf("Text %d", m.nodeCount),
		})
	case "d", "x":
		if _, isNode := m.ed.Schema().InlineNodes[sel]; isNode {
			m.do(actions.DeleteNode, actions.DeleteNodeArgs{NodeID: sel})
		} else if sel != "" {
			m.do(actions.DeleteBlock, actions.DeleteBlockArgs{BlockID: sel})
		}
	case "c":
		m.do(actions.ChangeTextColor, actions.ColorArgs{BlockID: sel, Color: m.next(composeColors, m.textOverride(sel).Color)})
	case "a":
		m.do(actions.ChangeTextAlign, actions.AlignArgs{BlockID: sel, Align: m.next(composeAligns, m.textOverride(sel).TextAlign)})
	case "b":
		catalog := m.ed.Registry().Env().Presets.Catalog()
		m.do(actions.ChangeBorderType, actions.BorderArgs{BlockID: sel, Border: m.next(catalog.BorderNames(), m.textConfig(sel).Border)})
	case "m":
		catalog := m.ed.Registry().Env().Presets.Catalog()
		m.do(actions.ChangeTemplate, actions.TemplateArgs{BlockID: sel, Template: m.next(catalog.TemplateNames(), m.textConfig(sel).Template)})
	case "s":
		if m.drafts == nil {
			m.Status, m.Err = "No draft store configured", true
			return m, nil
		}
		export := m.ed.Export()
		svc, ctx := m.drafts, m.ctx
		m.Status, m.Err = "Saving...", false
		return m, func() tea.Msg {
			id, err := svc.Save(ctx, export)
			return savedMsg{id: id, err: err}
		}
	}
	if n := len(m.selectable()); m.Cursor >= n {
		m.Cursor = max(0, n-1)
	}
	return m, nil
}

func (m *ComposeModel) do(t actions.ActionType, args any) {
	data, err := json.Marshal(args)
	if err == nil {
		err = m.ed.Do(t, data)
	}
	m.setStatus(err)
	if err == nil {
		m.Status = string(t)
	}
}

func (m *ComposeModel) setStatus(err error) {
	if err != nil {
		m.Status, m.Err = err.Error(), true
		return
	}
	m.Status, m.Err = "", false
}

func (m ComposeModel) textConfig(id string) post.TextConfig {
	if tb, err := m.ed.Schema().TextBlock(id); err == nil {
		return tb.Config
	}
	return post.TextConfig{}
}

func (m ComposeModel) textOverride(id string) post.TextOverrides {
	return m.textConfig(id).Overrides
}

// next returns the entry after cur in values, wrapping around.
func (m ComposeModel) next(values []string, cur string) string {
	for i, v := range values {
		if v == cur {
			return values[(i+1)%len(values)]
		}
	}
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func (m ComposeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Compose"))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(fmt.Sprintf("v%d", m.ed.Version())))
	if m.DraftID != "" {
		b.WriteString(StyleDim.Render("  draft " + m.DraftID))
	}
	b.WriteString("\n")
	b.WriteString(composeHelpStyle.Render("↑/↓ select  t text  d delete  c color  a align  b border  m template  l layout  u/r undo/redo  s save  q quit"))
	b.WriteString("\n\n")

	b.WriteString(gridView(m.ed.Schema(), m.ed.Width(), m.Cols, m.Selected()))
	b.WriteString("\n\n")
	b.WriteString(StyleDim.Render(docStats(m.ed.Schema())))
	b.WriteString("\n")

	if m.Status != "" {
		style := composeStatusStyle
		if m.Err {
			style = composeErrorStyle
		}
		b.WriteString(style.Render(m.Status))
		b.WriteString("\n")
	}
	return b.String()
}
