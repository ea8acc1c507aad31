package transport

import (
	"context"

	"github.com/UnendingLoop/ImageHost/internal/model"
	"github.com/gin-gonic/gin"
)

type mockImageService struct {
	uploadFn    func(ctx context.Context, req *model.UploadRequest) (*model.UploadResult, error)
	serveFn     func(ctx context.Context, filename string) (*model.ServeResult, error)
	deleteFn    func(ctx context.Context, filename string) error
	listFn      func(ctx context.Context) ([]model.FileInfo, error)
	countFn     func(ctx context.Context) (int, error)
	totalSizeFn func(ctx context.Context) (int64, error)
	maxBody     int64
}

func (m *mockImageService) Upload(ctx context.Context, req *model.UploadRequest) (*model.UploadResult, error) {
	return m.uploadFn(ctx, req)
}

func (m *mockImageService) Serve(ctx context.Context, filename string) (*model.ServeResult, error) {
	return m.serveFn(ctx, filename)
}

func (m *mockImageService) Delete(ctx context.Context, filename string) error {
	return m.deleteFn(ctx, filename)
}

func (m *mockImageService) List(ctx context.Context) ([]model.FileInfo, error) {
	return m.listFn(ctx)
}

func (m *mockImageService) Count(ctx context.Context) (int, error) {
	return m.countFn(ctx)
}

func (m *mockImageService) TotalSize(ctx context.Context) (int64, error) {
	return m.totalSizeFn(ctx)
}

func (m *mockImageService) MaxRequestBody() int64 {
	if m.maxBody == 0 {
		return 1 << 20
	}
	return m.maxBody
}

func init() {
	gin.SetMode(gin.TestMode)
}
