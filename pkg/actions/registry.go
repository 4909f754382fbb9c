package actions

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/matzehuels/postkit/pkg/errors"
	"github.com/matzehuels/postkit/pkg/history"
)

// Factory builds a mutator from JSON arguments.
type Factory func(env Env, args json.RawMessage) (history.Mutator, error)

// Spec describes a registered action.
type Spec struct {
	Type        ActionType
	Description string
	// IgnorableForUndo marks high-frequency cosmetic actions a caller may
	// keep off the undo stack.
	IgnorableForUndo bool
	Factory          Factory
}

// Registry maps action names to factories.
type Registry struct {
	mu    sync.RWMutex
	env   Env
	specs map[ActionType]Spec
}

// NewRegistry returns a registry holding every built-in action.
func NewRegistry(env Env) *Registry {
	r := &Registry{env: env.withDefaults(), specs: make(map[ActionType]Spec)}
	for _, s := range builtins() {
		r.specs[s.Type] = s
	}
	return r
}

func builtins() []Spec {
	return []Spec{
		{Type: InsertTextNode, Description: "Insert a floating text node at (x, y)", Factory: decode(Env.InsertTextNode)},
		{Type: DeleteBlock, Description: "Delete a grid block", Factory: decode(Env.DeleteBlock)},
		{Type: DeleteNode, Description: "Delete a floating node", Factory: decode(Env.DeleteNode)},
		{Type: UpdateBlockFrame, Description: "Store the measured frame of a block", Factory: decode(Env.UpdateBlockFrame), IgnorableForUndo: true},
		{Type: UpdateNodeFrame, Description: "Move, scale or rotate a floating node", Factory: decode(Env.UpdateNodeFrame), IgnorableForUndo: true},
		{Type: OnChangeBlockText, Description: "Change the text of a block", Factory: decode(Env.OnChangeBlockText)},
		{Type: ChangeTextColor, Description: "Change the text color", Factory: decode(Env.ChangeTextColor)},
		{Type: ChangeTextBackground, Description: "Change the text background", Factory: decode(Env.ChangeTextBackground)},
		{Type: ChangeTextAlign, Description: "Change the text alignment", Factory: decode(Env.ChangeTextAlign)},
		{Type: ChangeBorderType, Description: "Change the border of a text block", Factory: decode(Env.ChangeBorderType)},
		{Type: ChangeTemplate, Description: "Change the template of a text block", Factory: decode(Env.ChangeTemplate)},
		{Type: SetLayout, Description: "Arrange the grid into a canonical layout", Factory: decode(Env.SetLayout)},
		{Type: CommitSnap, Description: "Install a snap candidate", Factory: decode(Env.CommitSnap)},
		{Type: InsertImageBlock, Description: "Append an image as a new row", Factory: decode(Env.InsertImageBlock)},
		{Type: DetachBlock, Description: "Turn a grid block into a floating node", Factory: decode(Env.DetachBlock)},
		{Type: ChangeFormat, Description: "Change the format of a block", Factory: decode(Env.ChangeFormat)},
	}
}

// decode adapts a typed action to a Factory.
func decode[A any](build func(Env, A) history.Mutator) Factory {
	return func(env Env, raw json.RawMessage) (history.Mutator, error) {
		var args A
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidArgs, err, "decode arguments")
			}
		}
		return build(env, args), nil
	}
}

// Register adds or replaces an action.
func (r *Registry) Register(s Spec) error {
	if s.Type == "" || s.Factory == nil {
		return errors.New(errors.ErrCodeInvalidArgs, "action spec needs a type and a factory")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.specs[s.Type] = s
	return nil
}

// Lookup returns the spec of t.
func (r *Registry) Lookup(t ActionType) (Spec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.specs[t]
	return s, ok
}

// Spec returns the spec of t, or the zero Spec when t is unknown.
func (r *Registry) Spec(t ActionType) Spec {
	s, _ := r.Lookup(t)
	return s
}

// Build returns the mutator for t with the given JSON arguments.
func (r *Registry) Build(t ActionType, args json.RawMessage) (history.Mutator, error) {
	s, ok := r.Lookup(t)
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownAction, "unknown action %q", t)
	}
	return s.Factory(r.env, args)
}

// Env returns the environment passed to factories.
func (r *Registry) Env() Env { return r.env }

// Types returns the registered action names sorted.
func (r *Registry) Types() []ActionType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ActionType, 0, len(r.specs))
	for t := range r.specs {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
