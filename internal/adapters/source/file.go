package source

import (
	"context"
	"fmt"
	"os"

	"github.com/okian/followrank/internal/domain/model"
)

// FileSource reads records from a YAML or JSON file on every fetch.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name implements Source.
func (s *FileSource) Name() string { return "file" }

// Fetch implements Source.
func (s *FileSource) Fetch(ctx context.Context) ([]model.RankedEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	records, err := DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return Entities(records), nil
}
