// Package share resolves protocol paths against the shared directory.
//
// Clients address files with slash-separated paths rooted at "/". Every path
// is resolved under the configured share root and rejected if it would land
// outside it, so the server never reveals or touches anything beyond the
// share.
package share

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrEscapesRoot is returned for a protocol path that would resolve outside
// the share root. Callers map it to the protocol status appropriate for the
// operation (download vs upload).
var ErrEscapesRoot = errors.New("path escapes share root")

// Share is a resolved, existing shared directory.
type Share struct {
	root string
}

// FileInfo describes one regular file in a listing. Mtime is Unix seconds.
type FileInfo struct {
	Name   string
	Suffix string
	Size   int64
	Mtime  int64
}

// Open validates dir and returns a Share rooted at its absolute path.
func Open(dir string) (*Share, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve share root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("share root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("share root %s is not a directory", abs)
	}
	return &Share{root: abs}, nil
}

// Root returns the absolute share root path.
func (s *Share) Root() string {
	return s.root
}

// Resolve maps a protocol path ("/", "/docs/a.txt", ...) to an absolute
// filesystem path inside the root. Any ".." segment is rejected before
// normalization; the result is additionally checked to stay under the root.
func (s *Share) Resolve(protoPath string) (string, error) {
	for _, seg := range strings.Split(protoPath, "/") {
		if seg == ".." {
			return "", ErrEscapesRoot
		}
	}

	clean := path.Clean("/" + protoPath)
	resolved := filepath.Join(s.root, filepath.FromSlash(clean))

	if resolved != s.root && !strings.HasPrefix(resolved, s.root+string(filepath.Separator)) {
		return "", ErrEscapesRoot
	}
	return resolved, nil
}

// List returns the directories and regular files directly under the given
// protocol path. Entries are sorted by name within each class.
func (s *Share) List(protoPath string) (dirs []string, files []FileInfo, err error) {
	abs, err := s.Resolve(protoPath)
	if err != nil {
		return nil, nil, err
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, nil, err
	}

	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Entry vanished between ReadDir and Stat; skip it.
			continue
		}
		files = append(files, FileInfo{
			Name:   e.Name(),
			Suffix: filepath.Ext(e.Name()),
			Size:   info.Size(),
			Mtime:  info.ModTime().Unix(),
		})
	}

	sort.Strings(dirs)
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return dirs, files, nil
}

// StatFile resolves protoPath and stats it, requiring a regular file.
func (s *Share) StatFile(protoPath string) (string, os.FileInfo, error) {
	abs, err := s.Resolve(protoPath)
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", nil, err
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("%s is a directory", protoPath)
	}
	return abs, info, nil
}
