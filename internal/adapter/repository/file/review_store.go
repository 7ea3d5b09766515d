// Package file stores the review artifact as a JSON file on local disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/iho/zensubmit/internal/domain"
)

// ReviewStore implements usecase.ReviewStore with a single file.
//
// Save writes a temporary file next to the target and renames it into place,
// so a reader sees the old or the new artifact and never a partial one.
// Two concurrent Saves are not coordinated: the last rename wins.
type ReviewStore struct {
	path string
}

// NewReviewStore creates a new ReviewStore at path.
func NewReviewStore(path string) *ReviewStore {
	return &ReviewStore{path: path}
}

// Save replaces the artifact, creating the parent directory if needed.
func (s *ReviewStore) Save(ctx context.Context, artifact *domain.ReviewArtifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := domain.MarshalReview(artifact)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create review directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp review file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write review file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync review file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close review file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod review file: %w", err)
	}
	if err = os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace review file: %w", err)
	}
	return nil
}

// Load reads the artifact. It returns domain.ErrReviewNotFound if the file is absent.
func (s *ReviewStore) Load(ctx context.Context) (*domain.ReviewArtifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w at %s", domain.ErrReviewNotFound, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("read review file: %w", err)
	}

	artifact, err := domain.UnmarshalReview(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return artifact, nil
}

// Exists reports whether a review file is present.
func (s *ReviewStore) Exists(ctx context.Context) (bool, error) {
	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat review file: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("review path %s is a directory", s.path)
	}
	return true, nil
}

// Location returns the file path.
func (s *ReviewStore) Location() string {
	return s.path
}
