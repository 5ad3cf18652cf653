// internal/filestore/filestore.go
/* Package filestore provides the raw file primitives used by the token cache.
Every operation fails soft: errors are logged and turned into a nil / false
result, never returned to the caller. */
package filestore

import (
	"errors"
	"io/fs"

	"github.com/deploymenttheory/go-noclist-client/logger"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Store reads and writes whole files on an afero filesystem.
type Store struct {
	fs  afero.Fs
	log logger.Logger
}

// New returns a Store on top of fsys. A nil fsys means the OS filesystem.
func New(fsys afero.Fs, log logger.Logger) *Store {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Store{fs: fsys, log: log}
}

// Read returns the contents of path, or nil when the file is missing or unreadable.
func (s *Store) Read(path string) []byte {
	if path == "" {
		return nil
	}
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Debug("File not found", zap.String("path", path))
		} else {
			s.log.Warn("Failed to read file", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	return data
}

// Write replaces the contents of path and returns the number of bytes written.
func (s *Store) Write(path string, data []byte) (int, bool) {
	if path == "" {
		return 0, false
	}
	if err := afero.WriteFile(s.fs, path, data, 0600); err != nil {
		s.log.Warn("Failed to write file", zap.String("path", path), zap.Error(err))
		return 0, false
	}
	return len(data), true
}

// Exists reports whether path is present.
func (s *Store) Exists(path string) bool {
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}
