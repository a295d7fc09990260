package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// LocalStore writes blobs under a root directory: <root>/<folder>/<unix>_<name>.
type LocalStore struct {
	root string
	now  func() time.Time
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: root, now: time.Now}, nil
}

func (s *LocalStore) Save(_ context.Context, folder, name string, r io.Reader) (Object, error) {
	dir := filepath.Join(s.root, filepath.FromSlash(folder))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Object{}, fmt.Errorf("create folder: %w", err)
	}

	base := SanitizeName(name)
	stamp := s.now().Unix()
	for attempt := 0; ; attempt++ {
		stored := fmt.Sprintf("%d_%s", stamp, base)
		if attempt > 0 {
			stored = fmt.Sprintf("%d_%d_%s", stamp, attempt, base)
		}
		f, err := os.OpenFile(filepath.Join(dir, stored), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return Object{}, fmt.Errorf("create blob: %w", err)
		}

		size, copyErr := io.Copy(f, r)
		closeErr := f.Close()
		if copyErr != nil || closeErr != nil {
			_ = os.Remove(f.Name())
			return Object{}, fmt.Errorf("write blob: %w", errors.Join(copyErr, closeErr))
		}
		return Object{Locator: Locator(folder, stored), Size: size}, nil
	}
}

func (s *LocalStore) Open(_ context.Context, locator string) (io.ReadCloser, error) {
	if !validLocator(locator) {
		return nil, ErrNotFound
	}
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(locator)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *LocalStore) Delete(_ context.Context, locator string) error {
	if !validLocator(locator) {
		return ErrNotFound
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(locator)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *LocalStore) DeleteFolder(_ context.Context, folder string) error {
	if folder == "" || folder != filepath.Base(folder) {
		return fmt.Errorf("invalid folder %q", folder)
	}
	return os.RemoveAll(filepath.Join(s.root, folder))
}
