package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/anime-shed/doc-extractor-go/internal/errors"
)

type localStore struct {
	root string
}

// NewLocalStore creates a DocumentStore over a directory on disk. Refs
// are paths relative to root; escaping the root is rejected.
func NewLocalStore(root string) (DocumentStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, apperrors.NewStorageError("invalid storage root", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("storage root %q not accessible", abs), err)
	}
	if !info.IsDir() {
		return nil, apperrors.NewStorageError(fmt.Sprintf("storage root %q is not a directory", abs), nil)
	}
	return &localStore{root: abs}, nil
}

func (s *localStore) WithLocalPath(ctx context.Context, ref string, fn func(path string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ref == "" {
		return apperrors.NewValidationError("empty document reference", nil)
	}

	path := filepath.Join(s.root, filepath.Clean("/"+ref))
	if !strings.HasPrefix(path, s.root+string(filepath.Separator)) && path != s.root {
		return apperrors.NewValidationError("document reference escapes storage root", nil)
	}

	if _, err := os.Stat(path); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("document %q not found", ref), err)
	}
	return fn(path)
}
