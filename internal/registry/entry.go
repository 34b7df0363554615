package registry

import (
	"errors"
	"fmt"

	"cropflow/internal/geom"
)

// ErrInvalidSnapshot indicates a snapshot violates the registry invariants.
var ErrInvalidSnapshot = errors.New("invalid registry snapshot")

// Entry is one previously assigned identity.
type Entry struct {
	ID         int        `json:"id"`
	Position   [2]float64 `json:"position"`
	Size       float64    `json:"size"`
	RectCoords [4]int     `json:"rect_coords"`
}

// Point returns the stored position.
func (e Entry) Point() geom.Point {
	return geom.Point{X: e.Position[0], Y: e.Position[1]}
}

// Rect returns the stored bounding box.
func (e Entry) Rect() geom.Rect {
	return geom.RectFromArray(e.RectCoords)
}

// Snapshot is the ordered content of a registry at one point in time.
type Snapshot []Entry

// MaxID returns the largest id present, or -1 when the snapshot is empty.
func (s Snapshot) MaxID() int {
	maxID := -1
	for _, entry := range s {
		if entry.ID > maxID {
			maxID = entry.ID
		}
	}
	return maxID
}

// Lookup returns the entry with the given id.
func (s Snapshot) Lookup(id int) (Entry, bool) {
	for _, entry := range s {
		if entry.ID == id {
			return entry, true
		}
	}
	return Entry{}, false
}

// Clone returns a copy that can be appended to without aliasing s.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	out := make(Snapshot, len(s), len(s)+8)
	copy(out, s)
	return out
}

// FirstOccurrences returns s without entries whose id already appeared
// earlier, and how many entries were dropped. Registries written by older
// tooling re-append reused ids; the first entry is the one matching sees.
func (s Snapshot) FirstOccurrences() (Snapshot, int) {
	seen := make(map[int]struct{}, len(s))
	out := make(Snapshot, 0, len(s))
	for _, entry := range s {
		if _, dup := seen[entry.ID]; dup {
			continue
		}
		seen[entry.ID] = struct{}{}
		out = append(out, entry)
	}
	return out, len(s) - len(out)
}

// Validate reports negative or duplicate ids.
func (s Snapshot) Validate() error {
	seen := make(map[int]struct{}, len(s))
	for i, entry := range s {
		if entry.ID < 0 {
			return fmt.Errorf("%w: entry %d has negative id %d", ErrInvalidSnapshot, i, entry.ID)
		}
		if _, dup := seen[entry.ID]; dup {
			return fmt.Errorf("%w: duplicate id %d at entry %d", ErrInvalidSnapshot, entry.ID, i)
		}
		seen[entry.ID] = struct{}{}
	}
	return nil
}

// extendedBy reports whether next keeps every entry of s unchanged and in order.
func (s Snapshot) extendedBy(next Snapshot) bool {
	if len(next) < len(s) {
		return false
	}
	for i := range s {
		if s[i] != next[i] {
			return false
		}
	}
	return true
}
