package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage persists files on disk under a base directory.
type LocalStorage struct {
	baseDir string
	baseURL string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
// baseURL is prefixed to keys when building public URLs.
func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, baseURL: baseURL}, nil
}

// Put copies from reader into the file addressed by key.
func (s *LocalStorage) Put(_ context.Context, key, contentType string, r io.Reader) (*Object, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, fmt.Errorf("prepare storage directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return nil, fmt.Errorf("create stored file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	n, err := io.Copy(file, r)
	if err != nil {
		_ = os.Remove(target)
		return nil, fmt.Errorf("write stored file: %w", err)
	}
	return &Object{Key: key, URL: publicURL(s.baseURL, key), Size: n, ContentType: contentType}, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	target, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete stored file: %w", err)
	}
	return nil
}

// CleanupOlderThan removes files under folder older than ttl and returns the deleted keys.
func (s *LocalStorage) CleanupOlderThan(folder string, ttl time.Duration) ([]string, error) {
	root, err := s.resolve(folder)
	if err != nil {
		return nil, err
	}
	cutoff := time.Now().Add(-ttl)
	deleted := make([]string, 0)
	err = filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, err := filepath.Rel(s.baseDir, p)
		if err != nil {
			rel = p
		}
		deleted = append(deleted, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup storage: %w", err)
	}
	return deleted, nil
}

// Dir exposes the base directory so it can be served statically.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

func (s *LocalStorage) resolve(key string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	if clean == string(filepath.Separator) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}
