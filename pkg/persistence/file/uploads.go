package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cortexlab/cortexlab/pkg/models"
)

// LoadExperimentFile reads one uploaded experiment result from the uploads
// directory. Names are reduced to their base so a caller cannot reach outside
// the store.
func (fp *Persistence) LoadExperimentFile(_ context.Context, name string) (*models.ExperimentFile, error) {
	base := filepath.Base(name)

	content, err := os.ReadFile(filepath.Join(fp.root, "uploads", base))
	if err != nil {
		return nil, fmt.Errorf("failed to read experiment file %s: %w", base, err)
	}

	return &models.ExperimentFile{
		Name:    base,
		Type:    strings.TrimPrefix(filepath.Ext(base), "."),
		Content: string(content),
	}, nil
}

// SaveExperimentFile stores an uploaded experiment result under its base
// name, replacing any previous upload with the same name.
func (fp *Persistence) SaveExperimentFile(_ context.Context, name string, content []byte) error {
	base := filepath.Base(name)

	err := os.WriteFile(filepath.Join(fp.root, "uploads", base), content, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write experiment file %s: %w", base, err)
	}

	return nil
}
