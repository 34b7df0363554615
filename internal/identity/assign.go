package identity

import (
	"cropflow/internal/geom"
	"cropflow/internal/registry"
)

// Candidate is one object detected in a single image.
type Candidate struct {
	Position geom.Point
	Size     float64
	Rect     geom.Rect
}

// Radius returns the match radius, the half-diagonal of the candidate's box.
func (c Candidate) Radius() float64 {
	return c.Rect.HalfDiagonal()
}

// Assign returns the id for c and the updated maximum id. maxID is the largest
// id seen so far, -1 for an empty registry.
func Assign(c Candidate, entries []registry.Entry, maxID int) (int, int) {
	if id, ok := match(c, entries); ok {
		return id, maxID
	}
	maxID++
	return maxID, maxID
}

func match(c Candidate, entries []registry.Entry) (int, bool) {
	radius := c.Radius()
	for _, entry := range entries {
		if c.Position.Distance(entry.Point()) <= radius {
			return entry.ID, true
		}
	}
	return 0, false
}
