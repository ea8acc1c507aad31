// Package memstorage is an in-process storage backend, used for tests and ephemeral runs
package memstorage

import (
	"context"
	"strings"
	"sync"

	"github.com/UnendingLoop/ImageHost/internal/model"
)

type MemImageStorage struct {
	mu      sync.RWMutex
	files   map[string][]byte
	baseURL string
}

func NewMemStorage(baseURL string) *MemImageStorage {
	return &MemImageStorage{
		files:   make(map[string][]byte),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *MemImageStorage) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s.mu.Lock()
	s.files[filename] = buf
	s.mu.Unlock()

	return s.PublicURL(filename), nil
}

func (s *MemImageStorage) Read(ctx context.Context, filename string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.files[filename]
	if !ok {
		return nil, model.ErrFileNotFound
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (s *MemImageStorage) Delete(ctx context.Context, filename string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[filename]; !ok {
		return model.ErrFileNotFound
	}
	delete(s.files, filename)
	return nil
}

func (s *MemImageStorage) Exists(ctx context.Context, filename string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	_, ok := s.files[filename]
	s.mu.RUnlock()
	return ok, nil
}

func (s *MemImageStorage) List(ctx context.Context) ([]model.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]model.FileInfo, 0, len(s.files))
	for name, data := range s.files {
		res = append(res, model.FileInfo{Filename: name, Size: int64(len(data))})
	}
	return res, nil
}

func (s *MemImageStorage) Count(ctx context.Context) (int, error) {
	files, err := s.List(ctx)
	return len(files), err
}

func (s *MemImageStorage) TotalSize(ctx context.Context) (int64, error) {
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

func (s *MemImageStorage) PublicURL(filename string) string {
	return s.baseURL + "/" + filename
}
