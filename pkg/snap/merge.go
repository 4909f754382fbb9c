package snap

// Merge collapses candidates with the same key into the first one seen. The
// merged background is the union of every contributing background. Only
// the x origin is clamped to be non-negative.
func Merge(points []SnapPoint) []SnapPoint {
	if len(points) == 0 {
		return nil
	}
	index := make(map[string]int, len(points))
	out := make([]SnapPoint, 0, len(points))
	for _, p := range points {
		if i, ok := index[p.Key]; ok {
			out[i].Background = out[i].Background.Union(p.Background)
			continue
		}
		index[p.Key] = len(out)
		out = append(out, p)
	}
	for i := range out {
		out[i].Background.X = max(out[i].Background.X, 0)
	}
	return out
}
