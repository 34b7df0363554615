package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"cropflow/internal/geom"
)

// ErrNoCandidates indicates the candidate input could not be found.
var ErrNoCandidates = errors.New("no candidates available")

type candidateRecord struct {
	Position   *[2]float64 `json:"position"`
	Size       float64     `json:"size"`
	RectCoords *[4]int     `json:"rect_coords"`
}

// LoadCandidates reads extractor output from path.
func LoadCandidates(path string) ([]Candidate, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoCandidates, path)
		}
		return nil, fmt.Errorf("open candidates: %w", err)
	}
	defer file.Close()
	return DecodeCandidates(file)
}

// DecodeCandidates parses a JSON array of candidates. A candidate without a
// position is placed at the center of its box; one without a box matches only
// at distance zero.
func DecodeCandidates(r io.Reader) ([]Candidate, error) {
	var records []candidateRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("parse candidates: %w", err)
	}

	out := make([]Candidate, 0, len(records))
	for i, rec := range records {
		var c Candidate
		c.Size = rec.Size
		if rec.RectCoords != nil {
			c.Rect = geom.RectFromArray(*rec.RectCoords)
			if c.Rect.W < 0 || c.Rect.H < 0 {
				return nil, fmt.Errorf("candidate %d: negative box extent %v", i, *rec.RectCoords)
			}
		}
		switch {
		case rec.Position != nil:
			c.Position = geom.Point{X: rec.Position[0], Y: rec.Position[1]}
		case rec.RectCoords != nil:
			c.Position = c.Rect.Center()
		default:
			return nil, fmt.Errorf("candidate %d: position or rect_coords required", i)
		}
		out = append(out, c)
	}
	return out, nil
}
