package main

import (
	"os"
	"path/filepath"
	"testing"

	"cropflow/internal/preflight"
	"cropflow/internal/testsupport"
)

func TestCheckPasses(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "check")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "Registry:")
	requireContains(t, out, "not created yet")
}

func TestCheckReportsMissingOutputDir(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithOutputDir("exports"))

	out, _, err := runCLI(t, env, "--json", "check")
	if err == nil {
		t.Fatal("expected missing output directory to fail")
	}
	var results []preflight.Result
	decodeOutput(t, out, &results)
	failed := preflight.Failed(results)
	if len(failed) != 1 || failed[0].Name != "Output directory" {
		t.Fatalf("unexpected failures %+v", failed)
	}

	if err := os.MkdirAll(filepath.Join(env.baseDir, "exports"), 0o755); err != nil {
		t.Fatalf("mkdir exports: %v", err)
	}
	if _, _, err := runCLI(t, env, "check"); err != nil {
		t.Fatalf("check after mkdir: %v", err)
	}
}

func TestFormatCount(t *testing.T) {
	if got := formatCount(1234567); got != "1,234,567" {
		t.Fatalf("formatCount = %q", got)
	}
	if got := formatCount(12); got != "12" {
		t.Fatalf("formatCount = %q", got)
	}
}
