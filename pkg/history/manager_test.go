package history

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/matzehuels/postkit/pkg/post"
)

func addText(id, value string) Mutator {
	return func(s *post.Schema) error {
		s.Blocks[id] = post.NewTextBlock(id, value)
		s.Positions = append(s.Positions, post.Row{id})
		return nil
	}
}

func setText(id, value string) Mutator {
	return func(s *post.Schema) error {
		tb, err := s.TextBlock(id)
		if err != nil {
			return err
		}
		tb.Value = value
		return nil
	}
}

func addNode(id string, x float64) Mutator {
	return func(s *post.Schema) error {
		s.InlineNodes[id] = post.EditableNode{
			Block:    post.NewTextBlock(id, "node"),
			Position: post.NodePosition{X: x, Scale: 1},
		}
		return nil
	}
}

func moveNode(id string, x float64) Mutator {
	return func(s *post.Schema) error {
		n, ok := s.InlineNodes[id]
		if !ok {
			return fmt.Errorf("node %s not found", id)
		}
		n.Position.X = x
		s.InlineNodes[id] = n
		return nil
	}
}

func TestUndoRoundTrip(t *testing.T) {
	for _, n := range []int{1, 5, DefaultCap} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			initial := post.New()
			initial.Blocks["seed"] = post.NewTextBlock("seed", "start")
			initial.Positions = post.PositionList{{"seed"}}
			m := New(initial)

			for i := 0; i < n; i++ {
				var mut Mutator
				switch i % 4 {
				case 0:
					mut = addText(fmt.Sprintf("t%d", i), "x")
				case 1:
					mut = setText("seed", fmt.Sprintf("v%d", i))
				case 2:
					mut = addNode(fmt.Sprintf("n%d", i), float64(i))
				case 3:
					mut = func(s *post.Schema) error {
						s.Positions = s.Positions.Remove("seed")
						s.Positions = append(post.PositionList{{"seed"}}, s.Positions...)
						return nil
					}
				}
				if err := m.Dispatch("step", mut); err != nil {
					t.Fatalf("Dispatch(%d) error: %v", i, err)
				}
			}

			for i := 0; i < n; i++ {
				if !m.Undo() {
					t.Fatalf("Undo() #%d = false", i)
				}
			}
			if !reflect.DeepEqual(m.Schema(), initial) {
				t.Errorf("schema after %d undos differs from the initial one", n)
			}
			if m.CanUndo() {
				t.Error("CanUndo() = true after undoing everything")
			}
		})
	}
}

func TestUndoUnderflow(t *testing.T) {
	m := New(nil)
	if m.Undo() {
		t.Error("Undo() on an empty stack = true")
	}
	if m.Version() != -1 {
		t.Errorf("Version() = %d, want -1", m.Version())
	}
}

func TestGroupingCollapse(t *testing.T) {
	m := New(nil)
	if err := m.Dispatch("insertTextNode", addNode("a", 0)); err != nil {
		t.Fatal(err)
	}
	before := m.Schema().Clone()

	const k = 6
	m.SetUndoGroup(true)
	m.SetUndoGroup(true)
	for i := 1; i <= k; i++ {
		if err := m.Dispatch("updateNodeFrame", moveNode("a", float64(i*10))); err != nil {
			t.Fatal(err)
		}
	}
	m.SetUndoGroup(false)

	commits := m.Commits()
	if len(commits) != 2 {
		t.Fatalf("len(commits) = %d, want 2 (the insert plus one group)", len(commits))
	}
	group := commits[1]
	if len(group.Patches) != k {
		t.Errorf("group patches = %d, want %d", len(group.Patches), k)
	}
	if group.Version != 1 {
		t.Errorf("group version = %d, want 1", group.Version)
	}
	if m.Version() != k {
		t.Errorf("Version() = %d, want %d", m.Version(), k)
	}

	m.Undo()
	if !reflect.DeepEqual(m.Schema(), before) {
		t.Error("one undo did not revert the whole group")
	}
	if len(m.Commits()) != 1 {
		t.Errorf("len(commits) after undo = %d, want 1", len(m.Commits()))
	}
}

func TestGroupingFromEmptyHistory(t *testing.T) {
	m := New(nil)
	m.SetUndoGroup(true)
	for i := 0; i < 3; i++ {
		_ = m.Dispatch("insertTextNode", addNode(fmt.Sprintf("n%d", i), 0))
	}
	m.SetUndoGroup(false)

	if got := len(m.Commits()); got != 1 {
		t.Fatalf("len(commits) = %d, want 1", got)
	}
	if v := m.Commits()[0].Version; v != 0 {
		t.Errorf("group version = %d, want 0", v)
	}
	m.Undo()
	if len(m.Schema().InlineNodes) != 0 {
		t.Errorf("nodes after undo = %v, want none", m.Schema().InlineNodes.IDs())
	}
}

func TestUndoClosesGroup(t *testing.T) {
	m := New(nil)
	_ = m.Dispatch("a", addNode("a", 0))
	m.SetUndoGroup(true)
	_ = m.Dispatch("b", moveNode("a", 1))
	m.Undo()
	if m.Grouping() {
		t.Error("Undo() left the group open")
	}
	_ = m.Dispatch("c", moveNode("a", 2))
	_ = m.Dispatch("d", moveNode("a", 3))
	if got := len(m.Commits()); got != 3 {
		t.Errorf("len(commits) = %d, want 3", got)
	}
}

func TestMutatorErrorDiscardsDraft(t *testing.T) {
	m := New(nil)
	_ = m.Dispatch("insert", addText("a", "hello"))
	before := m.Schema()

	err := m.Dispatch("broken", func(s *post.Schema) error {
		s.Blocks["a"].(*post.TextBlock).Value = "half-applied"
		delete(s.Blocks, "a")
		return errors.New("precondition failed")
	})
	if err == nil {
		t.Fatal("Dispatch() error = nil, want the mutator error")
	}
	if m.Schema() != before {
		t.Error("failed dispatch replaced the schema")
	}
	if got := m.Schema().Blocks["a"].(*post.TextBlock).Value; got != "hello" {
		t.Errorf("value = %q, want %q", got, "hello")
	}
	if len(m.Commits()) != 1 || m.Version() != 0 {
		t.Errorf("commits = %d version = %d, want 1 and 0", len(m.Commits()), m.Version())
	}
}

func TestCapDropsOldest(t *testing.T) {
	m := New(nil, WithCap(3))
	for i := 0; i < 5; i++ {
		_ = m.Dispatch(fmt.Sprintf("a%d", i), addText(fmt.Sprintf("t%d", i), ""))
	}
	commits := m.Commits()
	if len(commits) != 3 {
		t.Fatalf("len(commits) = %d, want 3", len(commits))
	}
	if commits[0].Action != "a2" {
		t.Errorf("oldest commit = %s, want a2", commits[0].Action)
	}
}

func TestRedo(t *testing.T) {
	m := New(nil)
	_ = m.Dispatch("a", addText("a", "1"))
	_ = m.Dispatch("b", setText("a", "2"))
	after := m.Schema().Clone()

	m.Undo()
	if !m.CanRedo() {
		t.Fatal("CanRedo() = false after undo")
	}
	m.Redo()
	if !reflect.DeepEqual(m.Schema(), after) {
		t.Error("redo did not restore the undone change")
	}

	m.Undo()
	_ = m.Dispatch("c", setText("a", "3"))
	if m.CanRedo() {
		t.Error("a new dispatch should clear the redo stack")
	}
	if m.Redo() {
		t.Error("Redo() = true with an empty redo stack")
	}
}

func TestDispatchUntracked(t *testing.T) {
	m := New(nil)
	_ = m.Dispatch("insertTextNode", addNode("a", 0))
	if err := m.DispatchUntracked("updateNodeFrame", moveNode("a", 99)); err != nil {
		t.Fatal(err)
	}
	if got := m.Schema().InlineNodes["a"].Position.X; got != 99 {
		t.Errorf("x = %v, want 99", got)
	}
	if len(m.Commits()) != 1 {
		t.Errorf("len(commits) = %d, want 1", len(m.Commits()))
	}
	if err := m.DispatchUntracked("updateNodeFrame", moveNode("zz", 1)); err == nil {
		t.Error("DispatchUntracked() error = nil for a missing node")
	}
}

func TestDiffApplyRevert(t *testing.T) {
	old := post.New()
	old.Blocks["a"] = post.NewTextBlock("a", "one")
	old.Blocks["b"] = post.NewTextBlock("b", "two")
	old.Positions = post.PositionList{{"a", "b"}}

	next := old.Clone()
	delete(next.Blocks, "b")
	next.Blocks["a"].(*post.TextBlock).Value = "uno"
	next.Blocks["c"] = post.NewImagePlaceholder("c")
	next.Positions = post.PositionList{{"a"}, {"c"}}
	next.InlineNodes["n"] = post.EditableNode{Block: post.NewTextBlock("n", "x")}

	patches := Diff(old, next)
	ops := map[string]Op{}
	for _, p := range patches {
		ops[fmt.Sprint(p.Path)] = p.Op
	}
	want := map[string]Op{
		"[blocks a]":      OpReplace,
		"[blocks b]":      OpRemove,
		"[blocks c]":      OpAdd,
		"[positions]":     OpReplace,
		"[inlineNodes n]": OpAdd,
	}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("Diff() ops = %v, want %v", ops, want)
	}

	if got := Apply(old, patches); !reflect.DeepEqual(got, next) {
		t.Error("Apply(old, Diff(old, next)) != next")
	}
	if got := Revert(next, patches); !reflect.DeepEqual(got, old) {
		t.Error("Revert(next, Diff(old, next)) != old")
	}
	if len(Diff(old, old.Clone())) != 0 {
		t.Error("Diff of equal documents is not empty")
	}
}

func TestGroupCoversOnlyMutationsAfterOpening(t *testing.T) {
	tests := []struct {
		name        string
		openAfter   int // moves dispatched before the group opens
		wantCommits int
	}{
		{"opened before the first move", 0, 2},
		{"opened after the first move", 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(nil)
			if err := m.Dispatch("insertTextNode", addNode("a", 0)); err != nil {
				t.Fatal(err)
			}
			for i := 1; i <= 3; i++ {
				if i == tt.openAfter+1 {
					m.SetUndoGroup(true)
				}
				if err := m.Dispatch("updateNodeFrame", moveNode("a", float64(i))); err != nil {
					t.Fatal(err)
				}
			}
			m.SetUndoGroup(false)

			if got := len(m.Commits()); got != tt.wantCommits {
				t.Errorf("len(commits) = %d, want %d", got, tt.wantCommits)
			}
		})
	}
}
