package post

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/postkit/pkg/errors"
)

// MarshalJSON encodes the block with its "type" discriminator.
func (b *TextBlock) MarshalJSON() ([]byte, error) {
	type alias TextBlock
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindText, (*alias)(b)})
}

// MarshalJSON encodes the block with its "type" discriminator.
func (b *ImageBlock) MarshalJSON() ([]byte, error) {
	type alias ImageBlock
	return json.Marshal(struct {
		Type Kind `json:"type"`
		*alias
	}{KindImage, (*alias)(b)})
}

// UnmarshalBlock decodes a block from its tagged JSON form.
func UnmarshalBlock(data []byte) (Block, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode block")
	}
	switch head.Type {
	case KindText:
		var b TextBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode text block")
		}
		return &b, nil
	case KindImage:
		var b ImageBlock
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode image block")
		}
		return &b, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidDocument, "unknown block type %q", head.Type)
	}
}

// UnmarshalJSON decodes every block through UnmarshalBlock.
func (m *BlockMap) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(BlockMap, len(raw))
	for id, msg := range raw {
		b, err := UnmarshalBlock(msg)
		if err != nil {
			return fmt.Errorf("block %s: %w", id, err)
		}
		out[id] = b
	}
	*m = out
	return nil
}

// UnmarshalJSON decodes the node and its tagged block.
func (n *EditableNode) UnmarshalJSON(data []byte) error {
	var raw struct {
		Block    json.RawMessage `json:"block"`
		Position NodePosition    `json:"position"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Position = raw.Position
	n.Block = nil
	if len(raw.Block) == 0 || string(raw.Block) == "null" {
		return nil
	}
	b, err := UnmarshalBlock(raw.Block)
	if err != nil {
		return err
	}
	n.Block = b
	return nil
}

// Decode parses a JSON document and checks its invariants.
func Decode(data []byte) (*Schema, error) {
	s := New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode document")
	}
	s.normalize()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
