package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
)

// HoldLock takes the advisory lock at path, as a concurrent detection pass
// would, and returns a release func. The lock is also released on cleanup.
func HoldLock(t testing.TB, path string) func() {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for lock %s: %v", path, err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("hold lock %s: ok=%v err=%v", path, ok, err)
	}
	release := func() { _ = lock.Unlock() }
	t.Cleanup(release)
	return release
}
