package export

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"strconv"

	"cropflow/internal/fileutil"
	"cropflow/internal/flow"
	"cropflow/internal/nodules"
)

// TransitionDoc is the on-disk form of one adjacent-date transition.
type TransitionDoc struct {
	CurrentDate string         `json:"cd"`
	NextDate    string         `json:"nd"`
	Current     [][5]float64   `json:"c_nodules"`
	Next        [][5]float64   `json:"n_nodules"`
	IDMap       flow.IDMapping `json:"id_map"`
}

// Round rounds v to the given number of decimals. The decision is made on the
// exact binary value of v and exact ties go to the even digit, so 2.675 (stored
// just below 2.675) becomes 2.67 and 0.125 becomes 0.12.
func Round(v float64, decimals int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', decimals, 64), 64)
	if err != nil {
		return v
	}
	return rounded
}

// RoundRecord returns [x, y, diameter, perimeter, eccentricity] with export precision.
func RoundRecord(r nodules.Record) [5]float64 {
	return [5]float64{
		Round(r.X, 2),
		Round(r.Y, 2),
		Round(r.Diameter, 2),
		Round(r.Perimeter, 2),
		Round(r.Eccentricity, 4),
	}
}

// NewTransitionDoc converts a transition to its export form.
func NewTransitionDoc(t flow.Transition) TransitionDoc {
	mapping := t.Mapping
	if mapping == nil {
		mapping = flow.IDMapping{}
	}
	return TransitionDoc{
		CurrentDate: t.CurrentDate,
		NextDate:    t.NextDate,
		Current:     roundAll(t.Current),
		Next:        roundAll(t.Next),
		IDMap:       mapping,
	}
}

// TransitionFileName returns transition_data_<cd>_<nd>.json.
func TransitionFileName(currentDate, nextDate string) string {
	return fmt.Sprintf("transition_data_%s_%s.json",
		fileutil.SafeSegment(currentDate), fileutil.SafeSegment(nextDate))
}

// WriteTransition writes t into dir and returns the file path.
func WriteTransition(dir string, t flow.Transition) (string, error) {
	data, err := json.MarshalIndent(NewTransitionDoc(t), "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal transition: %w", err)
	}
	path := filepath.Join(dir, TransitionFileName(t.CurrentDate, t.NextDate))
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write transition: %w", err)
	}
	return path, nil
}

// WriteTransitions writes every transition into dir in order.
func WriteTransitions(dir string, transitions []flow.Transition) ([]string, error) {
	paths := make([]string, 0, len(transitions))
	for _, t := range transitions {
		path, err := WriteTransition(dir, t)
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func roundAll(records []nodules.Record) [][5]float64 {
	out := make([][5]float64, len(records))
	for i, r := range records {
		out[i] = RoundRecord(r)
	}
	return out
}
