package post

import (
	"encoding/json"
	"strings"
)

// Row is one horizontal row of the grid, ids ordered left to right.
type Row []string

// UnmarshalJSON accepts either a single id or an array of ids.
func (r *Row) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = Row{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*r = Row(many)
	return nil
}

// PositionList is the grid arrangement, rows ordered top to bottom.
type PositionList []Row

// Find returns the row and column of id, or (-1, -1) when it is absent.
func (p PositionList) Find(id string) (row, col int) {
	for i, r := range p {
		for j, rid := range r {
			if rid == id {
				return i, j
			}
		}
	}
	return -1, -1
}

// Contains reports whether id appears anywhere in the grid.
func (p PositionList) Contains(id string) bool {
	row, _ := p.Find(id)
	return row >= 0
}

// Remove returns a copy without id. Rows that become empty are dropped.
func (p PositionList) Remove(id string) PositionList {
	out := make(PositionList, 0, len(p))
	for _, r := range p {
		kept := make(Row, 0, len(r))
		for _, rid := range r {
			if rid != id {
				kept = append(kept, rid)
			}
		}
		if len(kept) > 0 {
			out = append(out, kept)
		}
	}
	return out
}

// IDs returns every id in reading order.
func (p PositionList) IDs() []string {
	var ids []string
	for _, r := range p {
		ids = append(ids, r...)
	}
	return ids
}

// Clone returns a deep copy.
func (p PositionList) Clone() PositionList {
	if p == nil {
		return nil
	}
	out := make(PositionList, len(p))
	for i, r := range p {
		out[i] = append(Row(nil), r...)
	}
	return out
}

// Key returns the canonical string of the arrangement: ids joined by ","
// within a row and rows joined by "|". Two lists with the same key describe
// the same grid.
func (p PositionList) Key() string {
	rows := make([]string, len(p))
	for i, r := range p {
		rows[i] = strings.Join(r, ",")
	}
	return strings.Join(rows, "|")
}
