package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cropflow/internal/export"
	"cropflow/internal/nodules"
	"cropflow/internal/testsupport"
)

func writeNoduleInfo(t *testing.T, env *cliTestEnv) string {
	t.Helper()
	path := filepath.Join(env.baseDir, "crop0001.json")
	testsupport.WriteJSON(t, path, nodules.Info{
		"20230101": {
			{X: 0, Y: 0, Diameter: 2.346, Perimeter: 7.001, Eccentricity: 0.123456},
			{X: 10, Y: 10, Diameter: 3, Perimeter: 9, Eccentricity: 0.5},
		},
		"20230102": {
			{X: 1, Y: 1, Diameter: 2.5, Perimeter: 7.5, Eccentricity: 0.2},
		},
		"20230103": {},
	})
	return path
}

func TestFlowWritesTransitionFiles(t *testing.T) {
	env := setupCLITestEnv(t)
	input := writeNoduleInfo(t, env)
	outDir := filepath.Join(env.baseDir, "transitions")

	out, _, err := runCLI(t, env, "flow", "--output-dir", outDir, input)
	if err != nil {
		t.Fatalf("flow: %v", err)
	}
	requireContains(t, out, "20230101")
	requireContains(t, out, "Wrote 2 transition file(s)")

	var doc export.TransitionDoc
	testsupport.ReadJSON(t, filepath.Join(outDir, export.TransitionFileName("20230101", "20230102")), &doc)
	if doc.CurrentDate != "20230101" || doc.NextDate != "20230102" {
		t.Fatalf("unexpected dates %q -> %q", doc.CurrentDate, doc.NextDate)
	}
	if len(doc.IDMap) != 2 || doc.IDMap[1] != 1 || doc.IDMap[2] != 1 {
		t.Fatalf("expected {1:1,2:1}, got %v", doc.IDMap)
	}
	if doc.Current[0] != [5]float64{0, 0, 2.35, 7, 0.1235} {
		t.Fatalf("expected rounded record, got %v", doc.Current[0])
	}

	var empty export.TransitionDoc
	testsupport.ReadJSON(t, filepath.Join(outDir, export.TransitionFileName("20230102", "20230103")), &empty)
	if len(empty.IDMap) != 0 || len(empty.Next) != 0 {
		t.Fatalf("expected empty mapping into empty date, got %+v", empty)
	}
}

func TestFlowDefaultsOutputBesideInput(t *testing.T) {
	env := setupCLITestEnv(t)
	input := writeNoduleInfo(t, env)

	if _, _, err := runCLI(t, env, "flow", "--workers", "1", input); err != nil {
		t.Fatalf("flow: %v", err)
	}
	target := filepath.Join(env.baseDir, "crop0001-output", export.TransitionFileName("20230101", "20230102"))
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected transition at %s: %v", target, err)
	}
}

func TestFlowJSONNoWrite(t *testing.T) {
	env := setupCLITestEnv(t)
	input := writeNoduleInfo(t, env)

	out, _, err := runCLI(t, env, "--json", "flow", "--no-write", input)
	if err != nil {
		t.Fatalf("flow: %v", err)
	}
	var report flowReport
	decodeOutput(t, out, &report)
	if len(report.Transitions) != 2 || report.OutputDir != "" {
		t.Fatalf("unexpected report %+v", report)
	}
	first := report.Transitions[0]
	if first.Matched != 2 || first.CurrentCount != 2 || first.NextCount != 1 || first.File != "" {
		t.Fatalf("unexpected first transition %+v", first)
	}
	if _, err := os.Stat(filepath.Join(env.baseDir, "crop0001-output")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no output dir, stat err=%v", err)
	}
}

func TestFlowMissingInputIsNoData(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "flow", filepath.Join(env.baseDir, "absent.json"))
	if !errors.Is(err, nodules.ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	requireContains(t, err.Error(), "no data available")
}

func TestFlowSingleDate(t *testing.T) {
	env := setupCLITestEnv(t)
	input := filepath.Join(env.baseDir, "single.json")
	testsupport.WriteJSON(t, input, nodules.Info{"20230101": {{X: 1, Y: 1}}})

	out, _, err := runCLI(t, env, "flow", input)
	if err != nil {
		t.Fatalf("flow: %v", err)
	}
	requireContains(t, out, "at least two are needed")
}
