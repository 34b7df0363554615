package nodules

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"cropflow/internal/geom"
)

// ErrNoData indicates the Nodule Info input does not exist.
var ErrNoData = errors.New("no data available")

// Record is one nodule measured on one date.
type Record struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Diameter     float64 `json:"diameter"`
	Perimeter    float64 `json:"perimeter"`
	Eccentricity float64 `json:"eccentricity"`
}

// Point returns the planar position of the record.
func (r Record) Point() geom.Point {
	return geom.Point{X: r.X, Y: r.Y}
}

// Info maps a date key to the records observed on that date.
type Info map[string][]Record

// Dates returns the date keys in ascending order.
func (info Info) Dates() []string {
	dates := make([]string, 0, len(info))
	for date := range info {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Count returns the total number of records across all dates.
func (info Info) Count() int {
	total := 0
	for _, records := range info {
		total += len(records)
	}
	return total
}

// Load reads a Nodule Info document from path. A missing file yields an
// error wrapping ErrNoData.
func Load(path string) (Info, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no file found for the name %s", ErrNoData, path)
		}
		return nil, fmt.Errorf("open nodule info: %w", err)
	}
	defer file.Close()
	return Decode(file)
}

// Decode parses a Nodule Info document.
func Decode(r io.Reader) (Info, error) {
	var info Info
	if err := json.NewDecoder(r).Decode(&info); err != nil {
		return nil, fmt.Errorf("parse nodule info: %w", err)
	}
	if info == nil {
		info = Info{}
	}
	return info, nil
}
