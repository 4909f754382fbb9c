package layout_test

import (
	"fmt"

	"github.com/matzehuels/postkit/pkg/layout"
	"github.com/matzehuels/postkit/pkg/post"
)

func ExampleEngine_LayoutBlocksInPost() {
	// A single square photo switched to "text above media"
	blocks := post.BlockMap{
		"img1": post.BuildImageBlock("img1", post.ImageMetadata{Width: 400, Height: 400, URI: "file:///img1.jpg"}),
	}
	positions := post.PositionList{{"img1"}}

	engine := layout.New(layout.WithIDGenerator(func() string { return "caption" }))
	out, rows := engine.LayoutBlocksInPost(post.FormatPost, post.LayoutVerticalTextMedia, blocks, positions)

	fmt.Println("Rows:", rows.Key())
	for _, id := range rows.IDs() {
		f := out[id].Base().FrameRect()
		fmt.Printf("%s: %gx%g at y=%g\n", id, f.Width, f.Height, f.Y)
	}
	crop := out["img1"].(*post.ImageBlock).Config.Dimensions.Crop
	fmt.Printf("img1 crop: %gx%g from y=%g\n", crop.Width, crop.Height, crop.Y)
	// Output:
	// Rows: caption|img1
	// caption: 360x64 at y=0
	// img1: 360x270 at y=64
	// img1 crop: 400x300 from y=50
}

func ExampleLayoutBlocksInPost_unknown() {
	blocks, rows := layout.LayoutBlocksInPost(post.FormatPost, post.Layout("diagonal"), nil, nil)
	fmt.Println(len(blocks), len(rows))
	// Output: 0 0
}
