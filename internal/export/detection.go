package export

import (
	"encoding/json"
	"fmt"

	"cropflow/internal/fileutil"
	"cropflow/internal/identity"
	"cropflow/internal/registry"
)

// DetectionDoc lists the resolved identities of one detection pass in the
// registry entry format.
type DetectionDoc []registry.Entry

// NewDetectionDoc converts pass results in candidate order.
func NewDetectionDoc(results []identity.Result) DetectionDoc {
	doc := make(DetectionDoc, len(results))
	for i, r := range results {
		doc[i] = r.Entry()
	}
	return doc
}

// WriteDetection writes the results of one pass to path.
func WriteDetection(path string, results []identity.Result) error {
	data, err := json.MarshalIndent(NewDetectionDoc(results), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal detection: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write detection: %w", err)
	}
	return nil
}
