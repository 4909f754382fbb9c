package post

// Export is the serializable view handed to the export collaborator. Grid
// frames are left out since they are derived from the rows; node frames are
// kept because they carry the node size.
type Export struct {
	Blocks    BlockMap     `json:"blocks"`
	Positions PositionList `json:"positions"`
	Nodes     NodeMap      `json:"nodes"`
}

// Export returns the serializable view of the document.
func (s *Schema) Export() Export {
	c := s.Clone()
	for _, b := range c.Blocks {
		b.Base().Frame = nil
	}
	return Export{Blocks: c.Blocks, Positions: c.Positions, Nodes: c.InlineNodes}
}

// FromExport rebuilds a document from its exported view and lays the grid
// out at width.
func FromExport(e Export, width float64) (*Schema, error) {
	s := (&Schema{Blocks: e.Blocks, Positions: e.Positions, InlineNodes: e.Nodes}).Clone()
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.Arrange(width)
	return s, nil
}
