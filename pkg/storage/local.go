package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStore keeps finished artifacts in one directory, named by video id.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &LocalStore{dir: abs}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

// PathFor is the canonical location of a video artifact with extension ext.
func (s *LocalStore) PathFor(videoID uuid.UUID, ext string) string {
	return filepath.Join(s.dir, videoID.String()+ext)
}

// Place moves src to {dir}/{videoID}{ext}, copying when a rename is not possible.
func (s *LocalStore) Place(src string, videoID uuid.UUID) (string, error) {
	ext := filepath.Ext(src)
	if ext == "" {
		ext = ".mp4"
	}
	dst := s.PathFor(videoID, ext)
	if src == dst {
		return dst, nil
	}
	if err := os.Rename(src, dst); err == nil {
		return dst, nil
	}
	if err := CopyFile(src, dst); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("place %s: %w", src, err)
	}
	return dst, nil
}

// Contains reports whether path resolves to a file inside the store directory.
func (s *LocalStore) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(s.dir, abs)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Remove deletes an artifact inside the store. Missing files are not an error.
func (s *LocalStore) Remove(path string) error {
	if !s.Contains(path) {
		return fmt.Errorf("refusing to remove %s outside %s", path, s.dir)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// CopyFile copies src to dst, truncating dst if it exists.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
