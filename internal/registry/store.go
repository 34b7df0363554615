package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"cropflow/internal/config"
	"cropflow/internal/logging"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

var (
	// ErrLocked indicates another process holds the registry lock.
	ErrLocked = errors.New("registry is locked by another process")
	// ErrNotAppendOnly indicates an update removed or rewrote existing entries.
	ErrNotAppendOnly = errors.New("registry update must only append entries")
)

// Store loads and saves registry snapshots.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
	Path() string
	Close() error
}

// Options selects and configures a registry backend.
type Options struct {
	Backend string
	Path    string
	RunID   string
	Logger  *slog.Logger
}

// Open returns the store for the configured backend.
func Open(opts Options) (Store, error) {
	if strings.TrimSpace(opts.Path) == "" {
		return nil, errors.New("registry path is required")
	}
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendJSON:
		return NewJSONStore(opts.Path, opts.Logger), nil
	case BackendSQLite:
		return OpenSQLite(opts.Path, opts.RunID, opts.Logger)
	default:
		return nil, fmt.Errorf("registry backend: unsupported value %q", opts.Backend)
	}
}

// OpenFromConfig opens the registry described by cfg.
func OpenFromConfig(cfg *config.Config, runID string, logger *slog.Logger) (Store, error) {
	if cfg == nil {
		return nil, errors.New("registry requires config")
	}
	return Open(Options{
		Backend: cfg.Registry.Backend,
		Path:    cfg.RegistryPath(),
		RunID:   runID,
		Logger:  logger,
	})
}

// LockPath returns the advisory lock file guarding the registry at path.
func LockPath(path string) string {
	return path + ".lock"
}

// Update runs one read-modify-write cycle against store while holding the
// registry lock. fn receives the loaded snapshot and returns the snapshot to
// save, which must keep every loaded entry unchanged and in order.
func Update(ctx context.Context, store Store, fn func(Snapshot) (Snapshot, error)) (Snapshot, error) {
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0o755); err != nil {
		return nil, fmt.Errorf("create registry directory: %w", err)
	}
	lock := flock.New(LockPath(store.Path()))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire registry lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, lock.Path())
	}
	defer func() {
		_ = lock.Unlock()
	}()

	current, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	next, err := fn(current.Clone())
	if err != nil {
		return nil, err
	}
	if !current.extendedBy(next) {
		return nil, ErrNotAppendOnly
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func componentLogger(logger *slog.Logger) *slog.Logger {
	return logging.NewComponentLogger(logger, "registry")
}
