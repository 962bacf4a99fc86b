package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/spf13/afero"
	"github.com/thomasarchive/archive/internal/catalog"
)

// FileSource reads catalog documents from a directory.
type FileSource struct {
	fs afero.Fs
}

func NewFileSource(fsys afero.Fs, dir string) *FileSource {
	return &FileSource{fs: afero.NewBasePathFs(fsys, dir)}
}

func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid document key %q", key)
	}
	return cleaned, nil
}

func (s *FileSource) Fetch(_ context.Context, key string) ([]byte, error) {
	name, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read %s: %w", key, catalog.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *FileSource) Put(_ context.Context, key string, body []byte) error {
	name, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(path.Dir(name), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", key, err)
	}
	if err := afero.WriteFile(s.fs, name, body, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// Keys lists every .json document below the directory, as slash-separated
// keys relative to it.
func (s *FileSource) Keys() ([]string, error) {
	var keys []string
	err := afero.Walk(s.fs, "/", func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || path.Ext(p) != ".json" {
			return nil
		}
		keys = append(keys, strings.TrimPrefix(p, "/"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk documents: %w", err)
	}
	return keys, nil
}
