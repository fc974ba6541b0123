package filesystem

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tubeconv/internal/domain/media"
)

// Files with these suffixes or infixes are still being written by the
// fetcher or transcoder and are never picked up as a finished download.
var (
	inProgressSuffixes = []string{".part", ".ytdl"}
	inProgressInfixes  = []string{".tmp.", ".temp."}
)

// Store manages the flat storage directory shared by every job.
type Store struct {
	Dir string
}

// NewStore creates a filesystem adapter rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// EnsureDir creates the storage directory and makes its path absolute.
func (s *Store) EnsureDir() error {
	abs, err := filepath.Abs(s.Dir)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}
	s.Dir = abs
	return nil
}

// Root returns the storage directory.
func (s *Store) Root() string {
	return s.Dir
}

// FinalPath builds the delivered artifact path for a job.
func (s *Store) FinalPath(job *media.ConversionJob) string {
	return filepath.Join(s.Dir, job.FinalName())
}

// Exists reports whether path is a regular file inside the storage directory.
func (s *Store) Exists(path string) bool {
	if path == "" || !isWithinDir(s.Dir, path) {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// FindByPrefix returns the first finished file whose name starts with prefix.
func (s *Store) FindByPrefix(prefix string) (string, bool) {
	if prefix == "" {
		return "", false
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return "", false
	}

	// ReadDir sorts by name, so the first hit is deterministic.
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || isInProgress(name) {
			continue
		}
		return filepath.Join(s.Dir, name), true
	}
	return "", false
}

// Resolve maps a requested download name onto a file inside the storage directory.
func (s *Store) Resolve(raw string) (string, error) {
	name, err := media.NormalizeFileName(raw)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.Dir, name)
	if !s.Exists(full) {
		return "", media.ErrFileNotFound
	}
	return full, nil
}

// Remove deletes a file inside the storage directory.
func (s *Store) Remove(path string) error {
	if !isWithinDir(s.Dir, path) {
		return errors.New("invalid file path")
	}
	return os.Remove(path)
}

// ListArtifacts returns every regular file in the storage directory, oldest first.
func (s *Store) ListArtifacts() ([]media.Artifact, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, err
	}

	artifacts := make([]media.Artifact, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		artifacts = append(artifacts, media.Artifact{
			Name:       entry.Name(),
			Path:       filepath.Join(s.Dir, entry.Name()),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.Slice(artifacts, func(i, j int) bool {
		return artifacts[i].ModifiedAt.Before(artifacts[j].ModifiedAt)
	})

	return artifacts, nil
}

func isInProgress(name string) bool {
	lower := strings.ToLower(name)
	for _, suffix := range inProgressSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	for _, infix := range inProgressInfixes {
		if strings.Contains(lower, infix) {
			return true
		}
	}
	return false
}

func isWithinDir(basePath, targetPath string) bool {
	baseAbs, err := filepath.Abs(basePath)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(targetPath)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false
	}
	sep := string(os.PathSeparator)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+sep) {
		return false
	}
	return true
}
