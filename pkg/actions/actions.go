// Package actions is the catalog of named document mutations.
//
// Every action is a small total function over the document model. It takes
// typed arguments and returns a [history.Mutator]; preconditions (the target
// exists, it is a text block, the preset is known) are checked inside the
// mutator and reported as coded errors, so a failing action leaves the
// document untouched.
//
// Front-ends that only have an action name and JSON arguments go through a
// [Registry]:
//
//	reg := actions.NewRegistry(actions.Env{})
//	mut, err := reg.Build(actions.InsertTextNode, []byte(`{"id":"a","x":10,"y":20}`))
//	err = mgr.Dispatch(string(actions.InsertTextNode), mut)
package actions

import (
	"github.com/google/uuid"

	"github.com/matzehuels/postkit/pkg/geometry"
	"github.com/matzehuels/postkit/pkg/post"
	"github.com/matzehuels/postkit/pkg/presets"
)

// ActionType names an action.
type ActionType string

// Action types.
const (
	InsertTextNode       ActionType = "insertTextNode"
	DeleteBlock          ActionType = "deleteBlock"
	DeleteNode           ActionType = "deleteNode"
	UpdateBlockFrame     ActionType = "updateBlockFrame"
	UpdateNodeFrame      ActionType = "updateNodeFrame"
	OnChangeBlockText    ActionType = "onChangeBlockText"
	ChangeTextColor      ActionType = "changeTextColor"
	ChangeTextBackground ActionType = "changeTextBackground"
	ChangeTextAlign      ActionType = "changeTextAlign"
	ChangeBorderType     ActionType = "changeBorderType"
	ChangeTemplate       ActionType = "changeTemplate"

	SetLayout        ActionType = "setLayout"
	CommitSnap       ActionType = "commitSnap"
	InsertImageBlock ActionType = "insertImageBlock"
	DetachBlock      ActionType = "detachBlock"
	ChangeFormat     ActionType = "changeFormat"
)

// Env carries the collaborators actions depend on.
type Env struct {
	// Presets provides the template and border catalog.
	Presets presets.Source
	// NewID names new blocks and nodes.
	NewID func() string
	// Width is the post width.
	Width float64
}

func (e Env) withDefaults() Env {
	if e.Presets == nil {
		e.Presets = presets.Default()
	}
	if e.NewID == nil {
		e.NewID = uuid.NewString
	}
	if e.Width <= 0 {
		e.Width = post.DefaultWidth
	}
	return e
}

// InsertTextNodeArgs places a new floating text node.
type InsertTextNodeArgs struct {
	ID       string  `json:"id,omitempty"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Text     string  `json:"text,omitempty"`
	Template string  `json:"template,omitempty"`
}

// DeleteBlockArgs removes a grid block.
type DeleteBlockArgs struct {
	BlockID string `json:"blockId"`
}

// DeleteNodeArgs removes a floating node.
type DeleteNodeArgs struct {
	NodeID string `json:"nodeId"`
}

// UpdateBlockFrameArgs stores a measured frame.
type UpdateBlockFrameArgs struct {
	BlockID string        `json:"blockId"`
	Frame   geometry.Rect `json:"frame"`
}

// UpdateNodeFrameArgs moves, scales or rotates a floating node.
type UpdateNodeFrameArgs struct {
	NodeID string  `json:"nodeId"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Scale  float64 `json:"scale"`
	Rotate float64 `json:"rotate"`
}

// TextArgs changes the value of a text block.
type TextArgs struct {
	BlockID string `json:"blockId"`
	Text    string `json:"text"`
}

// ColorArgs changes a text or background color. An empty color restores
// the template default.
type ColorArgs struct {
	BlockID string `json:"blockId"`
	Color   string `json:"color"`
}

// AlignArgs changes the text alignment.
type AlignArgs struct {
	BlockID string `json:"blockId"`
	Align   string `json:"align"`
}

// BorderArgs changes the border of a text block.
type BorderArgs struct {
	BlockID string `json:"blockId"`
	Border  string `json:"border"`
}

// TemplateArgs changes the template of a text block.
type TemplateArgs struct {
	BlockID  string `json:"blockId"`
	Template string `json:"template"`
}

// SetLayoutArgs rearranges the grid into a canonical layout.
type SetLayoutArgs struct {
	Format post.Format `json:"format"`
	Layout post.Layout `json:"layout"`
}

// CommitSnapArgs installs a snap candidate. BlockID is the dragged block.
type CommitSnapArgs struct {
	BlockID   string            `json:"blockId"`
	Blocks    post.BlockMap     `json:"blocks"`
	Positions post.PositionList `json:"positions"`
}

// InsertImageBlockArgs appends a resolved image as a new row.
type InsertImageBlockArgs struct {
	ID    string             `json:"id,omitempty"`
	Image post.ImageMetadata `json:"image"`
}

// DetachBlockArgs turns a grid block into a floating node at (X, Y).
type DetachBlockArgs struct {
	BlockID string  `json:"blockId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// ChangeFormatArgs changes the presentation format of a block.
type ChangeFormatArgs struct {
	BlockID string      `json:"blockId"`
	Format  post.Format `json:"format"`
}
