// Package publish writes rendered GLAuth configuration to disk.
package publish

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"

	"github.com/99minutos/glauth-sync/internal/core/domain"
	"github.com/99minutos/glauth-sync/internal/core/ports"
	"github.com/99minutos/glauth-sync/internal/infrastructure/fsutil"
)

const (
	diffContext = 5
	diffToFile  = "new glauth.cfg"
)

// Publisher implements ports.Publisher for a config file.
type Publisher struct {
	path    string
	logDiff bool
	writer  fsutil.AtomicWriter
	log     zerolog.Logger
}

var _ ports.Publisher = (*Publisher)(nil)

// NewPublisher returns a Publisher for path. With logDiff set, every change
// is logged as a unified diff before it is written.
func NewPublisher(path string, logDiff bool, log zerolog.Logger) *Publisher {
	return &Publisher{path: path, logDiff: logDiff, log: log}
}

// Publish replaces the target with content unless both are line-for-line
// equal. A missing target counts as empty.
func (p *Publisher) Publish(_ context.Context, content string) (bool, error) {
	data, _, err := fsutil.ReadFileIfExists(p.path)
	if err != nil {
		return false, fmt.Errorf("%w: read %s: %w", domain.ErrPublish, p.path, err)
	}
	current := string(data)

	oldLines, newLines := difflib.SplitLines(current), difflib.SplitLines(content)
	if slices.Equal(oldLines, newLines) {
		p.log.Debug().Str("path", p.path).Msg("configuration unchanged")
		return false, nil
	}

	p.log.Info().Str("path", p.path).Msg("configurations differ, writing new")
	if p.logDiff {
		p.reportDiff(oldLines, newLines)
	}

	if err := p.writer.WriteFile(p.path, []byte(content)); err != nil {
		return false, fmt.Errorf("%w: %w", domain.ErrPublish, err)
	}
	p.log.Info().Str("path", p.path).Msg("persisted new configuration file")
	return true, nil
}

func (p *Publisher) reportDiff(oldLines, newLines []string) {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        oldLines,
		B:        newLines,
		FromFile: p.path,
		ToFile:   diffToFile,
		Context:  diffContext,
	})
	if err != nil {
		p.log.Warn().Err(err).Msg("failed to build configuration diff")
		return
	}
	for _, line := range strings.Split(strings.TrimRight(diff, "\n"), "\n") {
		p.log.Info().Msg("    " + line)
	}
}
