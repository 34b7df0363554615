package nodules

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"cropflow/internal/fileutil"
)

// DefaultMinArea is the area at or below which RootPainter rows are skipped.
const DefaultMinArea = 3.0

var requiredColumns = []string{"file_name", "area", "x", "y", "diameter", "perimeter", "eccentricity"}

// IngestOptions controls CSV ingestion.
type IngestOptions struct {
	MinArea float64
}

// IngestStats counts what happened to the CSV rows.
type IngestStats struct {
	Rows    int `json:"rows"`
	Kept    int `json:"kept"`
	Skipped int `json:"skipped"`
	Crops   int `json:"crops"`
}

// Crops maps a crop number to its Nodule Info.
type Crops map[string]Info

// Numbers returns the crop numbers in ascending order.
func (c Crops) Numbers() []string {
	out := make([]string, 0, len(c))
	for n := range c {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Ingest groups RootPainter CSV rows by crop and date. The crop number is the
// last four characters of file_name with a leading "p" removed; the date is
// its first eight characters. Shorter names are used as far as they go. Rows keep their CSV order within a date.
func Ingest(r io.Reader, opts IngestOptions) (Crops, IngestStats, error) {
	var stats IngestStats
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, errors.New("csv is empty")
		}
		return nil, stats, fmt.Errorf("read csv header: %w", err)
	}
	index, err := columnIndex(header)
	if err != nil {
		return nil, stats, err
	}

	crops := Crops{}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read csv: %w", err)
		}
		stats.Rows++
		line, _ := reader.FieldPos(0)

		area, err := parseField(row, index, "area", line)
		if err != nil {
			return nil, stats, err
		}
		if area <= opts.MinArea {
			stats.Skipped++
			continue
		}

		name := row[index["file_name"]]
		crop, date, err := splitFileName(name)
		if err != nil {
			return nil, stats, fmt.Errorf("line %d: %w", line, err)
		}

		var rec Record
		for _, f := range []struct {
			column string
			dst    *float64
		}{
			{"x", &rec.X},
			{"y", &rec.Y},
			{"diameter", &rec.Diameter},
			{"perimeter", &rec.Perimeter},
			{"eccentricity", &rec.Eccentricity},
		} {
			if *f.dst, err = parseField(row, index, f.column, line); err != nil {
				return nil, stats, err
			}
		}

		if crops[crop] == nil {
			crops[crop] = Info{}
		}
		crops[crop][date] = append(crops[crop][date], rec)
		stats.Kept++
	}
	stats.Crops = len(crops)
	return crops, stats, nil
}

// IngestFile opens path and runs Ingest.
func IngestFile(path string, opts IngestOptions) (Crops, IngestStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, IngestStats{}, fmt.Errorf("open csv: %w", err)
	}
	defer file.Close()
	return Ingest(file, opts)
}

// CropFileName returns the Nodule Info file name for a crop number.
func CropFileName(crop string) string {
	return "crop" + fileutil.SafeSegment(crop) + ".json"
}

// WriteCropFiles writes one Nodule Info file per crop into dir and returns
// the written paths in crop order.
func WriteCropFiles(dir string, crops Crops) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	paths := make([]string, 0, len(crops))
	for _, crop := range crops.Numbers() {
		data, err := json.Marshal(crops[crop])
		if err != nil {
			return nil, fmt.Errorf("marshal crop %s: %w", crop, err)
		}
		path := filepath.Join(dir, CropFileName(crop))
		if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
			return nil, fmt.Errorf("write crop %s: %w", crop, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func columnIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("csv missing columns: %s", strings.Join(missing, ", "))
	}
	return index, nil
}

func parseField(row []string, index map[string]int, column string, line int) (float64, error) {
	i := index[column]
	if i >= len(row) {
		return 0, fmt.Errorf("line %d: missing %s", line, column)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(row[i]), 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: parse %s %q: %w", line, column, row[i], err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("line %d: %s %q is not a finite number", line, column, row[i])
	}
	return value, nil
}

// splitFileName takes the date from the first eight characters and the crop
// from the last four, as much of either as the name holds.
func splitFileName(name string) (crop, date string, err error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", errors.New("file_name is empty")
	}
	date = name[:min(len(name), 8)]
	crop = strings.TrimPrefix(name[max(len(name)-4, 0):], "p")
	if crop == "" {
		return "", "", fmt.Errorf("file_name %q has no crop number", name)
	}
	return crop, date, nil
}
