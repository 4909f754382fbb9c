package history_test

import (
	"fmt"

	"github.com/matzehuels/postkit/pkg/history"
	"github.com/matzehuels/postkit/pkg/post"
)

func ExampleManager() {
	m := history.New(nil)

	_ = m.Dispatch("insertTextNode", func(s *post.Schema) error {
		s.InlineNodes["a"] = post.EditableNode{
			Block:    post.NewTextBlock("a", "hello"),
			Position: post.NodePosition{X: 10, Y: 20, Scale: 1},
		}
		return nil
	})

	// A drag gesture: three moves, one undo step.
	m.SetUndoGroup(true)
	for _, x := range []float64{40, 80, 120} {
		_ = m.Dispatch("updateNodeFrame", func(s *post.Schema) error {
			n := s.InlineNodes["a"]
			n.Position.X = x
			s.InlineNodes["a"] = n
			return nil
		})
	}
	m.SetUndoGroup(false)
	fmt.Println("Commits:", len(m.Commits()))
	fmt.Println("x:", m.Schema().InlineNodes["a"].Position.X)

	m.Undo()
	fmt.Println("x after undo:", m.Schema().InlineNodes["a"].Position.X)

	m.Undo()
	fmt.Println("Nodes:", len(m.Schema().InlineNodes), "can undo:", m.CanUndo())
	fmt.Println("Undo on empty history:", m.Undo())
	// Output:
	// Commits: 2
	// x: 120
	// x after undo: 10
	// Nodes: 0 can undo: false
	// Undo on empty history: false
}
