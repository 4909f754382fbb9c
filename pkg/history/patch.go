package history

import (
	"reflect"
	"sort"

	"github.com/matzehuels/postkit/pkg/post"
)

// Op is the kind of change a patch makes.
type Op string

// Patch operations.
const (
	OpAdd     Op = "add"
	OpRemove  Op = "remove"
	OpReplace Op = "replace"
)

// Top-level document fields a patch path can start with.
const (
	FieldBlocks      = "blocks"
	FieldPositions   = "positions"
	FieldInlineNodes = "inlineNodes"
)

// Patch is one reversible change to a document. Path is either
// ["blocks", id], ["inlineNodes", id] or ["positions"]. Value holds the new
// value and Prev the old one, so a patch can be applied in both directions.
type Patch struct {
	Op    Op       `json:"op"`
	Path  []string `json:"path"`
	Value any      `json:"value,omitempty"`
	Prev  any      `json:"prev,omitempty"`
}

// Inverse returns the patch undoing p.
func (p Patch) Inverse() Patch {
	inv := Patch{Path: p.Path, Value: p.Prev, Prev: p.Value}
	switch p.Op {
	case OpAdd:
		inv.Op = OpRemove
	case OpRemove:
		inv.Op = OpAdd
	default:
		inv.Op = OpReplace
	}
	return inv
}

// Diff returns the patches turning old into next, at block, node and
// position-list granularity. Values are deep copies.
func Diff(old, next *post.Schema) []Patch {
	var patches []Patch

	for _, id := range unionKeys(old.Blocks, next.Blocks) {
		a, inOld := old.Blocks[id]
		b, inNext := next.Blocks[id]
		path := []string{FieldBlocks, id}
		switch {
		case !inOld:
			patches = append(patches, Patch{Op: OpAdd, Path: path, Value: b.Clone()})
		case !inNext:
			patches = append(patches, Patch{Op: OpRemove, Path: path, Prev: a.Clone()})
		case !reflect.DeepEqual(a, b):
			patches = append(patches, Patch{Op: OpReplace, Path: path, Value: b.Clone(), Prev: a.Clone()})
		}
	}

	if !reflect.DeepEqual(old.Positions, next.Positions) {
		patches = append(patches, Patch{
			Op:    OpReplace,
			Path:  []string{FieldPositions},
			Value: next.Positions.Clone(),
			Prev:  old.Positions.Clone(),
		})
	}

	for _, id := range unionKeys(old.InlineNodes, next.InlineNodes) {
		a, inOld := old.InlineNodes[id]
		b, inNext := next.InlineNodes[id]
		path := []string{FieldInlineNodes, id}
		switch {
		case !inOld:
			patches = append(patches, Patch{Op: OpAdd, Path: path, Value: b.Clone()})
		case !inNext:
			patches = append(patches, Patch{Op: OpRemove, Path: path, Prev: a.Clone()})
		case !reflect.DeepEqual(a, b):
			patches = append(patches, Patch{Op: OpReplace, Path: path, Value: b.Clone(), Prev: a.Clone()})
		}
	}
	return patches
}

func unionKeys[V any](a, b map[string]V) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Apply returns a copy of s with patches applied in order.
func Apply(s *post.Schema, patches []Patch) *post.Schema {
	out := s.Clone()
	for _, p := range patches {
		apply(out, p)
	}
	return out
}

// Revert returns a copy of s with the inverse of patches applied in reverse
// order.
func Revert(s *post.Schema, patches []Patch) *post.Schema {
	out := s.Clone()
	for i := len(patches) - 1; i >= 0; i-- {
		apply(out, patches[i].Inverse())
	}
	return out
}

// apply mutates s. Patches whose value does not match the path are skipped.
func apply(s *post.Schema, p Patch) {
	if len(p.Path) == 0 {
		return
	}
	switch p.Path[0] {
	case FieldPositions:
		if pl, ok := p.Value.(post.PositionList); ok {
			s.Positions = pl.Clone()
		}
	case FieldBlocks:
		if len(p.Path) < 2 {
			return
		}
		id := p.Path[1]
		if p.Op == OpRemove {
			delete(s.Blocks, id)
			return
		}
		if b, ok := p.Value.(post.Block); ok {
			s.Blocks[id] = b.Clone()
		}
	case FieldInlineNodes:
		if len(p.Path) < 2 {
			return
		}
		id := p.Path[1]
		if p.Op == OpRemove {
			delete(s.InlineNodes, id)
			return
		}
		if n, ok := p.Value.(post.EditableNode); ok {
			s.InlineNodes[id] = n.Clone()
		}
	}
}
