// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnendingLoop/ImageHost/internal/model"
	"github.com/wb-go/wbf/ginext"
)

const (
	deletedMessage = "File deleted"
	robotsTxt      = "User-agent: *\nDisallow: /\n"
	// имена неизменяемы, поэтому кэшировать можно надолго
	immutableCache = "public, max-age=31536000, immutable"
)

type ImageHandler struct {
	service ImageService
	repoURL string
}

type ImageService interface {
	Upload(ctx context.Context, req *model.UploadRequest) (*model.UploadResult, error)
	Serve(ctx context.Context, filename string) (*model.ServeResult, error) // байты или ссылка для редиректа
	Delete(ctx context.Context, filename string) error
	List(ctx context.Context) ([]model.FileInfo, error)
	Count(ctx context.Context) (int, error)
	TotalSize(ctx context.Context) (int64, error)
	MaxRequestBody() int64
}

func NewImageHandler(svc ImageService, repoURL string) *ImageHandler {
	return &ImageHandler{
		service: svc,
		repoURL: repoURL,
	}
}

func (h ImageHandler) Root(ctx *ginext.Context) {
	ctx.Redirect(http.StatusFound, h.repoURL)
}

func (h ImageHandler) Favicon(ctx *ginext.Context) {
	ctx.Status(http.StatusNoContent)
}

func (h ImageHandler) Robots(ctx *ginext.Context) {
	ctx.String(http.StatusOK, robotsTxt)
}

func (h ImageHandler) Health(ctx *ginext.Context) {
	ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h ImageHandler) Upload(ctx *ginext.Context) {
	// тело ограничено заранее: base64 + запас под JSON
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, h.service.MaxRequestBody())

	var req model.UploadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(ctx, model.ErrPayloadTooLarge)
			return
		}
		ctx.JSON(http.StatusBadRequest, map[string]string{"error": "failed to parse request body"})
		return
	}

	res, err := h.service.Upload(ctx.Request.Context(), &req)
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (h ImageHandler) List(ctx *ginext.Context) {
	res, err := h.service.List(ctx.Request.Context())
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, res)
}

func (h ImageHandler) Count(ctx *ginext.Context) {
	n, err := h.service.Count(ctx.Request.Context())
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, map[string]int{"count": n})
}

func (h ImageHandler) Size(ctx *ginext.Context) {
	size, err := h.service.TotalSize(ctx.Request.Context())
	if err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, map[string]int64{"size": size})
}

func (h ImageHandler) Serve(ctx *ginext.Context) {
	filename := ctx.Param("filename")

	res, err := h.service.Serve(ctx.Request.Context(), filename)
	if err != nil {
		writeError(ctx, err)
		return
	}

	if res.RedirectURL != "" {
		ctx.Redirect(http.StatusFound, res.RedirectURL)
		return
	}

	ctx.Header("Cache-Control", immutableCache)
	ctx.Data(http.StatusOK, res.ContentType, res.Data)
}

func (h ImageHandler) Delete(ctx *ginext.Context) {
	filename := ctx.Param("filename")
	if err := h.service.Delete(ctx.Request.Context(), filename); err != nil {
		writeError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, map[string]string{"message": deletedMessage})
}
