package service

import (
	"context"

	"github.com/UnendingLoop/ImageHost/internal/model"
)

// MOCK STORAGE

type mockStorage struct {
	saveFn      func(ctx context.Context, filename string, data []byte) (string, error)
	readFn      func(ctx context.Context, filename string) ([]byte, error)
	deleteFn    func(ctx context.Context, filename string) error
	existsFn    func(ctx context.Context, filename string) (bool, error)
	listFn      func(ctx context.Context) ([]model.FileInfo, error)
	countFn     func(ctx context.Context) (int, error)
	totalSizeFn func(ctx context.Context) (int64, error)
}

func (m *mockStorage) Save(ctx context.Context, filename string, data []byte) (string, error) {
	return m.saveFn(ctx, filename, data)
}

func (m *mockStorage) Read(ctx context.Context, filename string) ([]byte, error) {
	return m.readFn(ctx, filename)
}

func (m *mockStorage) Delete(ctx context.Context, filename string) error {
	return m.deleteFn(ctx, filename)
}

func (m *mockStorage) Exists(ctx context.Context, filename string) (bool, error) {
	return m.existsFn(ctx, filename)
}

func (m *mockStorage) List(ctx context.Context) ([]model.FileInfo, error) {
	return m.listFn(ctx)
}

func (m *mockStorage) Count(ctx context.Context) (int, error) {
	return m.countFn(ctx)
}

func (m *mockStorage) TotalSize(ctx context.Context) (int64, error) {
	return m.totalSizeFn(ctx)
}

func (m *mockStorage) PublicURL(filename string) string {
	return "http://test/" + filename
}

// mockDirectStorage - хранилище, умеющее отдавать прямые ссылки
type mockDirectStorage struct {
	mockStorage
}

func (m *mockDirectStorage) DirectURL(filename string) string {
	return "https://cdn.test/" + filename
}

// MOCK FETCHER

type mockFetcher struct {
	fetchFn func(ctx context.Context, rawURL string, limit int64) ([]byte, error)
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	return m.fetchFn(ctx, rawURL, limit)
}
