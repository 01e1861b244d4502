package storage

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// ErrNotFound is returned when a requested path does not exist in storage.
var ErrNotFound = errors.New("not found")

// Storage is flat object storage addressed by slash-separated paths.
type Storage interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, path string) (bool, error)
}

// DocumentPath is the path of the YAML document holding one record of a collection.
func DocumentPath(collection, id string) string {
	return fmt.Sprintf("%s/%s.yaml", collection, id)
}

// ReadAll returns the contents of every object under prefix in path order.
// Objects deleted between listing and reading are skipped.
func ReadAll(ctx context.Context, s Storage, prefix string) ([][]byte, error) {
	paths, err := s.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)

	out := make([][]byte, 0, len(paths))
	for _, p := range paths {
		data, err := s.Read(ctx, p)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		out = append(out, data)
	}
	return out, nil
}
