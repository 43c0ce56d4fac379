package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// FileStore writes each entry as a JSON file in a directory.
type FileStore struct {
	dir string
	log zerolog.Logger
}

// NewFileStore creates a store rooted at dir. The directory is created on first write.
func NewFileStore(dir string, log zerolog.Logger) *FileStore {
	return &FileStore{
		dir: dir,
		log: log.With().Str("store", "archive_file").Logger(),
	}
}

// Dir returns the storage directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Put writes the payload via a temp file and rename so readers never see partial files.
func (s *FileStore) Put(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	path := filepath.Join(s.dir, e.Key())
	tmp, err := os.CreateTemp(s.dir, ".archive-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(e.Payload); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write archive %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close archive %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move archive into place: %w", err)
	}

	s.log.Debug().Str("path", path).Int("bytes", len(e.Payload)).Msg("Archived payload")
	return nil
}
