package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cropflow/internal/config"
	"cropflow/internal/registry"
	"cropflow/internal/testsupport"
)

func writeCandidates(t *testing.T, env *cliTestEnv, candidates ...map[string]any) string {
	t.Helper()
	path := filepath.Join(env.baseDir, "candidates.json")
	testsupport.WriteJSON(t, path, candidates)
	return path
}

func candidate(x, y float64, rect [4]int) map[string]any {
	return map[string]any{"position": []float64{x, y}, "size": 4, "rect_coords": rect}
}

func TestDetectMintsThenReuses(t *testing.T) {
	env := setupCLITestEnv(t)
	input := writeCandidates(t, env, candidate(5, 5, [4]int{3, 3, 4, 4}))

	out, _, err := runCLI(t, env, "--json", "detect", input)
	if err != nil {
		t.Fatalf("first detect: %v", err)
	}
	var first detectionReport
	decodeOutput(t, out, &first)
	if len(first.Objects) != 1 || first.Objects[0].ID != 0 || first.Objects[0].Reused {
		t.Fatalf("expected minted id 0, got %+v", first.Objects)
	}
	if first.Summary.Minted != 1 || first.Summary.MaxID != 0 {
		t.Fatalf("unexpected summary %+v", first.Summary)
	}

	out, _, err = runCLI(t, env, "--json", "detect", input)
	if err != nil {
		t.Fatalf("second detect: %v", err)
	}
	var second detectionReport
	decodeOutput(t, out, &second)
	if len(second.Objects) != 1 || second.Objects[0].ID != 0 || !second.Objects[0].Reused {
		t.Fatalf("expected reused id 0, got %+v", second.Objects)
	}
	if first.RunID == second.RunID {
		t.Fatalf("expected distinct run ids, got %q twice", first.RunID)
	}

	var stored []registry.Entry
	testsupport.ReadJSON(t, env.cfg.RegistryPath(), &stored)
	if len(stored) != 1 || stored[0].ID != 0 || stored[0].RectCoords != [4]int{3, 3, 4, 4} {
		t.Fatalf("unexpected registry content %+v", stored)
	}
}

func TestDetectAcceptsRegistryWithRepeatedIDs(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteJSON(t, env.cfg.RegistryPath(), []registry.Entry{
		{ID: 0, Position: [2]float64{5, 5}, Size: 4, RectCoords: [4]int{3, 3, 4, 4}},
		{ID: 0, Position: [2]float64{5.5, 5}, Size: 4, RectCoords: [4]int{3, 3, 4, 4}},
	})
	input := writeCandidates(t, env,
		candidate(5, 5, [4]int{3, 3, 4, 4}),
		candidate(100, 100, [4]int{98, 98, 4, 4}),
	)

	out, _, err := runCLI(t, env, "--json", "detect", input)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	var report detectionReport
	decodeOutput(t, out, &report)
	if report.Summary.Reused != 1 || report.Summary.Minted != 1 || report.Summary.MaxID != 1 {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}

	var stored []registry.Entry
	testsupport.ReadJSON(t, env.cfg.RegistryPath(), &stored)
	if len(stored) != 2 || stored[0].Position != [2]float64{5, 5} || stored[1].ID != 1 {
		t.Fatalf("expected first occurrence kept and id 1 appended, got %+v", stored)
	}
}

func TestDetectTableOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	store := testsupport.MustOpenRegistry(t, env.cfg)
	testsupport.SeedRegistry(t, store, registry.Entry{ID: 7, Position: [2]float64{5, 5}, Size: 4, RectCoords: [4]int{3, 3, 4, 4}})

	input := writeCandidates(t, env,
		candidate(5.5, 5, [4]int{3, 3, 4, 4}),
		candidate(100, 100, [4]int{98, 98, 4, 4}),
	)
	out, _, err := runCLI(t, env, "detect", input)
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	requireContains(t, out, "reused")
	requireContains(t, out, "new")
	requireContains(t, out, "2 candidates, 1 reused, 1 new, max id 8")
}

func TestDetectDryRunLeavesRegistryUntouched(t *testing.T) {
	env := setupCLITestEnv(t)
	input := writeCandidates(t, env, candidate(1, 1, [4]int{0, 0, 2, 2}))

	out, _, err := runCLI(t, env, "detect", "--dry-run", input)
	if err != nil {
		t.Fatalf("detect --dry-run: %v", err)
	}
	requireContains(t, out, "dry run")
	if _, err := os.Stat(env.cfg.RegistryPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no registry file, stat err=%v", err)
	}
}

func TestDetectWritesOutputFile(t *testing.T) {
	env := setupCLITestEnv(t)
	input := writeCandidates(t, env,
		candidate(1, 1, [4]int{0, 0, 2, 2}),
		candidate(50, 50, [4]int{48, 48, 4, 4}),
	)
	target := filepath.Join(env.baseDir, "out", "objects.json")

	if _, _, err := runCLI(t, env, "detect", "--output", target, input); err != nil {
		t.Fatalf("detect --output: %v", err)
	}
	var written []registry.Entry
	testsupport.ReadJSON(t, target, &written)
	if len(written) != 2 || written[0].ID != 0 || written[1].ID != 1 {
		t.Fatalf("unexpected detection output %+v", written)
	}
}

func TestDetectMissingCandidates(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "detect", filepath.Join(env.baseDir, "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing candidates")
	}
	requireContains(t, err.Error(), "no candidates available")
}

func TestDetectFailsWhileRegistryLocked(t *testing.T) {
	env := setupCLITestEnv(t)
	input := writeCandidates(t, env, candidate(1, 1, [4]int{0, 0, 2, 2}))

	lockPath := registry.LockPath(env.cfg.RegistryPath())
	holder := testsupport.HoldLock(t, lockPath)
	defer holder()

	_, _, err := runCLI(t, env, "detect", input)
	if !errors.Is(err, registry.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestDetectSQLiteRecordsPasses(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithRegistryBackend(config.RegistryBackendSQLite))
	input := writeCandidates(t, env, candidate(5, 5, [4]int{3, 3, 4, 4}))

	for i := range 2 {
		if _, _, err := runCLI(t, env, "detect", input); err != nil {
			t.Fatalf("detect pass %d: %v", i, err)
		}
	}

	out, _, err := runCLI(t, env, "--json", "registry", "stats")
	if err != nil {
		t.Fatalf("registry stats: %v", err)
	}
	var stats registryStats
	decodeOutput(t, out, &stats)
	if stats.Entries != 1 || stats.MaxID != 0 || stats.Backend != config.RegistryBackendSQLite {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(stats.Passes) != 2 {
		t.Fatalf("expected 2 recorded passes, got %+v", stats.Passes)
	}
	if stats.Passes[0].EntriesAdded != 0 || stats.Passes[1].EntriesAdded != 1 {
		t.Fatalf("expected newest pass first, got %+v", stats.Passes)
	}
}
