package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"cropflow/internal/fileutil"
	"cropflow/internal/logging"
)

// JSONStore keeps the registry as a JSON array of entries.
type JSONStore struct {
	path   string
	logger *slog.Logger
}

// NewJSONStore returns a store backed by the file at path. The file is
// created on the first Save.
func NewJSONStore(path string, logger *slog.Logger) *JSONStore {
	return &JSONStore{path: path, logger: componentLogger(logger)}
}

// Path returns the snapshot file location.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the snapshot. A missing or empty file is an empty registry.
// Repeated ids keep their first entry.
func (s *JSONStore) Load(_ context.Context) (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.logger.Debug("registry file absent, starting empty", logging.String(logging.FieldPath, s.path))
			return Snapshot{}, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}
	if len(data) == 0 {
		return Snapshot{}, nil
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if snapshot == nil {
		snapshot = Snapshot{}
	}
	snapshot, dropped := snapshot.FirstOccurrences()
	if dropped > 0 {
		logging.WarnWithContext(s.logger, "registry has repeated ids", "registry_duplicates",
			logging.String(logging.FieldPath, s.path),
			logging.Int("dropped", dropped),
			logging.String(logging.FieldImpact, "later duplicates ignored and removed on next save"),
			logging.String(logging.FieldErrorHint, "file was likely written by older tooling"),
		)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	s.logger.Debug("loaded registry",
		logging.Int(logging.FieldEntryCount, len(snapshot)),
		logging.String(logging.FieldPath, s.path))
	return snapshot, nil
}

// Save writes the snapshot atomically.
func (s *JSONStore) Save(_ context.Context, snapshot Snapshot) error {
	if snapshot == nil {
		snapshot = Snapshot{}
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write registry: %w", err)
	}
	s.logger.Debug("saved registry",
		logging.Int(logging.FieldEntryCount, len(snapshot)),
		logging.String(logging.FieldPath, s.path))
	return nil
}

// Close is a no-op for file snapshots.
func (s *JSONStore) Close() error {
	return nil
}
