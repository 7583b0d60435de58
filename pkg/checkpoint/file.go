package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileStore keeps one small text file per key inside a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Join(ErrStoreFailed, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, "checkpoint-"+key+".txt"), nil
}

// Load implements Store.
func (s *FileStore) Load(_ context.Context, key string) (int, error) {
	p, err := s.path(key)
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Join(ErrStoreFailed, err)
	}
	return parseIndex(string(data))
}

// Save implements Store. The file is replaced atomically.
func (s *FileStore) Save(_ context.Context, key string, next int) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if next < 0 {
		return fmt.Errorf("%w: %d", ErrCorrupt, next)
	}

	tmp, err := os.CreateTemp(s.dir, ".checkpoint-*")
	if err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(strconv.Itoa(next)); err != nil {
		_ = tmp.Close()
		return errors.Join(ErrStoreFailed, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

// Clear implements Store.
func (s *FileStore) Clear(_ context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrCorrupt, s)
	}
	return n, nil
}
