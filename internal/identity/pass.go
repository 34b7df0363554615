package identity

import (
	"cropflow/internal/registry"
)

// Result is the resolved identity of one candidate.
type Result struct {
	ID        int
	Candidate Candidate
	Reused    bool
}

// Entry converts the result to its registry form.
func (r Result) Entry() registry.Entry {
	return registry.Entry{
		ID:         r.ID,
		Position:   [2]float64{r.Candidate.Position.X, r.Candidate.Position.Y},
		Size:       r.Candidate.Size,
		RectCoords: r.Candidate.Rect.Array(),
	}
}

// Summary counts the outcome of a pass.
type Summary struct {
	Candidates int `json:"candidates"`
	Reused     int `json:"reused"`
	Minted     int `json:"minted"`
	MaxID      int `json:"max_id"`
}

// Pass resolves every candidate against snapshot and returns the results in
// candidate order together with the snapshot extended by the minted entries.
// snapshot itself is not modified.
func Pass(snapshot registry.Snapshot, candidates []Candidate) ([]Result, registry.Snapshot) {
	maxID := snapshot.MaxID()
	updated := snapshot.Clone()
	results := make([]Result, 0, len(candidates))

	for _, c := range candidates {
		id, next := Assign(c, snapshot, maxID)
		res := Result{ID: id, Candidate: c, Reused: next == maxID}
		maxID = next
		if !res.Reused {
			updated = append(updated, res.Entry())
		}
		results = append(results, res)
	}
	return results, updated
}

// Summarize counts reused and minted results.
func Summarize(results []Result, updated registry.Snapshot) Summary {
	s := Summary{Candidates: len(results), MaxID: updated.MaxID()}
	for _, r := range results {
		if r.Reused {
			s.Reused++
		} else {
			s.Minted++
		}
	}
	return s
}
