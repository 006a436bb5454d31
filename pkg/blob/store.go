// Package blob stages downloaded payloads as temporary files with a
// create → use → delete lifecycle and periodic expiry of leftovers.
package blob

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const namePrefix = "tgbridge_"

// Store writes temporary blobs under a single directory. Only files carrying
// the store's name prefix are ever expired, so a shared temp dir stays safe.
type Store struct {
	dir string
	log *slog.Logger
}

// NewStore creates the blob directory if needed. An empty dir selects the
// system temp directory.
func NewStore(dir string, log *slog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		dir = os.TempDir()
	}
	if log == nil {
		log = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob directory: %w", err)
	}

	return &Store{
		dir: dir,
		log: log.With("component", "blob.store"),
	}, nil
}

// Dir returns the directory blobs are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Save writes data to a fresh temp file named <namePrefix><prefix>*<suffix>
// and returns its path.
func (s *Store) Save(data []byte, suffix string, prefix string) (string, error) {
	f, err := os.CreateTemp(s.dir, namePrefix+prefix+"*"+suffix)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	path := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	s.log.Debug("Saved temporary file", "path", path, "bytes", len(data))
	return path, nil
}

// Delete removes a blob. Missing files are not an error; the single-owner
// lifecycle means double deletes can happen on error paths.
func (s *Store) Delete(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("delete temp file: %w", err)
	}

	s.log.Debug("Deleted temporary file", "path", path)
	return nil
}

// ExpireOlderThan deletes store-owned blobs whose modification time is older
// than maxAge and returns how many were removed.
func (s *Store) ExpireOlderThan(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("scan blob directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), namePrefix) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			s.log.Warn("Failed to expire temporary file", "path", path, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		s.log.Info("Expired old temporary files", "count", deleted)
	}

	return deleted, nil
}
