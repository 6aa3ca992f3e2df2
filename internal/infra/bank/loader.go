// Package bank reads question banks from YAML (or JSON) files, one file per
// source: <dir>/<source>.yaml.
package bank

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"timed-quiz/internal/domain"
)

var extensions = []string{".yaml", ".yml", ".json"}

// File is the on-disk layout of a question bank.
type File struct {
	Source    string            `yaml:"source"`
	Questions []domain.Question `yaml:"questions"`
}

// Loader loads question banks from a directory.
type Loader struct {
	dir string
}

func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

func (l *Loader) LoadQuestions(ctx context.Context, source string) ([]domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if source == "" || strings.ContainsAny(source, `/\`) || strings.Contains(source, "..") {
		return nil, fmt.Errorf("invalid source %q", source)
	}
	for _, ext := range extensions {
		path := filepath.Join(l.dir, source+ext)
		file, err := ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return file.Questions, nil
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, source)
}

// ReadFile parses and validates a single bank file.
func ReadFile(path string) (File, error) {
	var file File
	data, err := os.ReadFile(path)
	if err != nil {
		return file, err
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse %s: %w", path, err)
	}
	if file.Source == "" {
		file.Source = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for _, q := range file.Questions {
		if err := q.Validate(); err != nil {
			return file, fmt.Errorf("%s: %w", path, err)
		}
	}
	return file, nil
}
