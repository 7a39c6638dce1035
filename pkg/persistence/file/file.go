// Package file provides file-based persistence for runs, run events and
// artifacts. Runs and artifacts are one JSON document per entity; each run's
// events live in one append-ordered JSON log.
package file

import (
	"context"
	"os"
	"strings"
	"sync"
)

// Persistence implements the persistence.Persistence interface using the
// file system.
type Persistence struct {
	root string

	// Guards read-modify-write cycles, notably event sequence assignment.
	mu sync.Mutex
}

// NewPersistence creates a new instance rooted at the given directory. A
// file:// prefix is stripped so database URLs can be passed through.
func NewPersistence(root string) (*Persistence, error) {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	for _, dir := range []string{"runs", "events", "artifacts", "uploads"} {
		err := os.MkdirAll(cleanRoot+"/"+dir, 0o755)
		if err != nil {
			return nil, err
		}
	}

	return &Persistence{root: cleanRoot}, nil
}

// Close performs any necessary cleanup. For file-based persistence there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}
