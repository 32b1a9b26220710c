package publish

import (
	"context"
	"fmt"
	"os"

	"github.com/99minutos/glauth-sync/internal/core/domain"
	"github.com/99minutos/glauth-sync/internal/core/ports"
)

// FileTemplate reads the configuration preamble from disk on every run, so
// template edits are picked up without a restart.
type FileTemplate struct {
	path string
}

var _ ports.TemplateSource = (*FileTemplate)(nil)

func NewFileTemplate(path string) *FileTemplate {
	return &FileTemplate{path: path}
}

func (t *FileTemplate) Template(_ context.Context) (string, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", domain.ErrTemplateRead, t.path, err)
	}
	return string(data), nil
}
