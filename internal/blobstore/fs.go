package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/deltacheats/internal/common"
	"github.com/dmitrijs2005/deltacheats/internal/filex"
)

// FSStore keeps blobs as files in one directory.
type FSStore struct {
	dir string
}

// NewFSStore creates dir when needed.
func NewFSStore(dir string) (*FSStore, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &FSStore{dir: abs}, nil
}

// Dir returns the absolute storage directory.
func (s *FSStore) Dir() string {
	return s.dir
}

func (s *FSStore) Put(_ context.Context, key string, data []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return filex.WriteAtomic(filepath.Join(s.dir, key), data)
}

func (s *FSStore) Get(_ context.Context, key string) ([]byte, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrNoStore
		}
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}
	return data, nil
}

func (s *FSStore) Exists(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}
	_, err := os.Stat(filepath.Join(s.dir, key))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat blob %s: %w", key, err)
	}
}

func (s *FSStore) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, key)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return common.ErrNoStore
		}
		return fmt.Errorf("remove blob %s: %w", key, err)
	}
	return nil
}
