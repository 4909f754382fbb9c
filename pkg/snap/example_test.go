package snap_test

import (
	"fmt"

	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/post"
	"github.com/matzehuels/postkit/pkg/snap"
)

func ExampleGetAllSnapPoints() {
	// Two stacked text blocks and a floating note being dragged.
	blocks := post.BlockMap{
		"a": post.NewTextBlock("a", "first"),
		"b": post.NewTextBlock("b", "second"),
	}
	positions := post.PositionList{{"a"}, {"b"}}
	post.Arrange(blocks, positions, post.DefaultWidth)

	note := post.NewTextBlock("n", "note")
	note.SetFrame(geometry.Rect{Width: 180, Height: 64})

	// Below a and above b give the same document and are merged.
	points := snap.GetAllSnapPoints(note, blocks, positions)
	fmt.Println("Candidates:", len(points))
	for _, p := range points {
		fmt.Println(p.Direction, p.Key)
	}
	bg := points[1].Background
	fmt.Printf("a|n|b background: %gx%g at (%g,%g)\n", bg.Width, bg.Height, bg.X, bg.Y)
	// Output:
	// Candidates: 7
	// top n|a|b
	// bottom a|n|b
	// left n,a|b
	// right a,n|b
	// bottom a|b|n
	// left a|n,b
	// right a|b,n
	// a|n|b background: 360x64 at (0,64)
}
