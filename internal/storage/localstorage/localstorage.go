// Package localstorage keeps images as flat files inside one root directory
package localstorage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/UnendingLoop/ImageHost/internal/model"
)

type LocalImageStorage struct {
	root    string
	baseURL string
}

// NewLocalStorage checks that root exists and is a directory. It never creates it.
func NewLocalStorage(root, baseURL string) (*LocalImageStorage, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("storage root %q: %w", root, err)
	}
	if !st.IsDir() {
		return nil, fmt.Errorf("storage root %q is not a directory", root)
	}

	return &LocalImageStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalImageStorage) Root() string {
	return s.root
}

// Save пишет во временный скрытый файл и переименовывает - чужие читатели не видят недописанный файл
func (s *LocalImageStorage) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(s.root, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %v: %w", err, model.ErrStorageWrite)
	}
	tmpName := tmp.Name()

	_, wErr := tmp.Write(data)
	cErr := tmp.Close()
	if err := errors.Join(wErr, cErr); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write %q: %v: %w", filename, err, model.ErrStorageWrite)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("chmod %q: %v: %w", filename, err, model.ErrStorageWrite)
	}

	if err := os.Rename(tmpName, s.path(filename)); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename into %q: %v: %w", filename, err, model.ErrStorageWrite)
	}

	return s.PublicURL(filename), nil
}

func (s *LocalImageStorage) Read(ctx context.Context, filename string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path(filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.ErrFileNotFound
		}
		return nil, fmt.Errorf("read %q: %v: %w", filename, err, model.ErrStorageRead)
	}
	return data, nil
}

func (s *LocalImageStorage) Delete(ctx context.Context, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Remove(s.path(filename)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.ErrFileNotFound
		}
		return fmt.Errorf("remove %q: %v: %w", filename, err, model.ErrStorageWrite)
	}
	return nil
}

func (s *LocalImageStorage) Exists(ctx context.Context, filename string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	st, err := os.Stat(s.path(filename))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat %q: %v: %w", filename, err, model.ErrStorageRead)
	}
	return st.Mode().IsRegular(), nil
}

// List перечисляет только обычные нескрытые файлы в корне
func (s *LocalImageStorage) List(ctx context.Context) ([]model.FileInfo, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %v: %w", s.root, err, model.ErrStorageRead)
	}

	files := make([]model.FileInfo, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
			continue
		}

		info, err := e.Info()
		if err != nil {
			// файл удалили между ReadDir и Stat
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("stat %q: %v: %w", e.Name(), err, model.ErrStorageRead)
		}
		files = append(files, model.FileInfo{Filename: e.Name(), Size: info.Size()})
	}

	return files, nil
}

func (s *LocalImageStorage) Count(ctx context.Context) (int, error) {
	files, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

func (s *LocalImageStorage) TotalSize(ctx context.Context) (int64, error) {
	files, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}
	return total, nil
}

func (s *LocalImageStorage) PublicURL(filename string) string {
	return s.baseURL + "/" + filename
}

func (s *LocalImageStorage) path(filename string) string {
	return filepath.Join(s.root, filepath.Base(filename))
}
