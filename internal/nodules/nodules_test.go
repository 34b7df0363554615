package nodules

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsNoData(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "crop1.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoData))
	assert.Contains(t, err.Error(), "no file found for the name")
}

func TestLoadKeepsRecordOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crop1.json")
	doc := `{
		"20230210": [{"x": 10, "y": 10, "diameter": 2, "perimeter": 6, "eccentricity": 0.1}],
		"20230201": [
			{"x": 0, "y": 0, "diameter": 1, "perimeter": 3, "eccentricity": 0.5},
			{"x": 5, "y": 5, "diameter": 1.5, "perimeter": 4, "eccentricity": 0.25}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	info, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"20230201", "20230210"}, info.Dates())
	assert.Equal(t, 3, info.Count())
	require.Len(t, info["20230201"], 2)
	assert.Equal(t, Record{X: 5, Y: 5, Diameter: 1.5, Perimeter: 4, Eccentricity: 0.25}, info["20230201"][1])
}

func TestDecodeRejectsMalformed(t *testing.T) {
	_, err := Decode(strings.NewReader(`["not", "a", "map"]`))
	assert.Error(t, err)
}

const sampleCSV = `file_name,area,x,y,diameter,perimeter,eccentricity
20230201_img_p001,10,1.5,2.5,3,9.42,0.5
20230201_img_p001,3,9,9,1,1,0
20230201_img_p001,12,4,4,3.2,10.1,0.25
20230208_img_p001,11,2,3,3,9,0.4
20230201_img_0012,20,7,7,5,15.7,0.9
`

func TestIngestGroupsByCropAndDate(t *testing.T) {
	crops, stats, err := Ingest(strings.NewReader(sampleCSV), IngestOptions{MinArea: DefaultMinArea})
	require.NoError(t, err)

	assert.Equal(t, IngestStats{Rows: 5, Kept: 4, Skipped: 1, Crops: 2}, stats)
	assert.Equal(t, []string{"001", "0012"}, crops.Numbers())

	first := crops["001"]
	assert.Equal(t, []string{"20230201", "20230208"}, first.Dates())
	require.Len(t, first["20230201"], 2)
	assert.Equal(t, Record{X: 1.5, Y: 2.5, Diameter: 3, Perimeter: 9.42, Eccentricity: 0.5}, first["20230201"][0])
	assert.Equal(t, 4.0, first["20230201"][1].X)

	require.Len(t, crops["0012"]["20230201"], 1)
}

func TestIngestMinAreaOverride(t *testing.T) {
	_, stats, err := Ingest(strings.NewReader(sampleCSV), IngestOptions{MinArea: 11})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, 3, stats.Skipped)
}

func TestIngestErrors(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"missing column": "file_name,area,x,y\n20230201_p001,10,1,2\n",
		"bad number":     "file_name,area,x,y,diameter,perimeter,eccentricity\n20230201_p001,10,abc,2,3,4,5\n",
		"empty name":     "file_name,area,x,y,diameter,perimeter,eccentricity\n\"\",10,1,2,3,4,5\n",
	}
	for name, input := range cases {
		_, _, err := Ingest(strings.NewReader(input), IngestOptions{MinArea: DefaultMinArea})
		assert.Error(t, err, name)
	}
}

func TestIngestErrorNamesLine(t *testing.T) {
	input := "file_name,area,x,y,diameter,perimeter,eccentricity\n20230201_p001,10,1,2,3,4,5\n20230201_p001,10,1,2,x,4,5\n"
	_, _, err := Ingest(strings.NewReader(input), IngestOptions{MinArea: DefaultMinArea})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "diameter")
}

func TestIngestRejectsNonFiniteValues(t *testing.T) {
	for _, value := range []string{"nan", "NaN", "inf", "-Inf"} {
		input := "file_name,area,x,y,diameter,perimeter,eccentricity\n" +
			"20230201_p001,10,1,2,3,4,5\n" +
			"20230201_p001,10,1,2,3,4," + value + "\n"
		_, _, err := Ingest(strings.NewReader(input), IngestOptions{MinArea: DefaultMinArea})
		require.Error(t, err, value)
		assert.Contains(t, err.Error(), "line 3", value)
		assert.Contains(t, err.Error(), "eccentricity", value)
	}
}

func TestIngestShortFileName(t *testing.T) {
	input := "file_name,area,x,y,diameter,perimeter,eccentricity\np12,10,1,2,3,4,5\n"
	crops, stats, err := Ingest(strings.NewReader(input), IngestOptions{MinArea: DefaultMinArea})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Kept)
	require.Contains(t, crops, "12")
	assert.Equal(t, []string{"p12"}, crops["12"].Dates())
}

func TestWriteCropFiles(t *testing.T) {
	crops, _, err := Ingest(strings.NewReader(sampleCSV), IngestOptions{MinArea: DefaultMinArea})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "output")
	paths, err := WriteCropFiles(dir, crops)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "crop001.json"), filepath.Join(dir, "crop0012.json")}, paths)

	info, err := Load(paths[0])
	require.NoError(t, err)
	assert.Equal(t, crops["001"], info)

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	var raw map[string][]map[string]float64
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, 0.9, raw["20230201"][0]["eccentricity"])
}
