// Package service provides business-logic for the app
package service

import (
	"context"
	"errors"

	"github.com/UnendingLoop/ImageHost/internal/imageproc"
	"github.com/UnendingLoop/ImageHost/internal/keygen"
	"github.com/UnendingLoop/ImageHost/internal/model"
	"github.com/UnendingLoop/ImageHost/internal/mwlogger"
	"github.com/UnendingLoop/ImageHost/internal/storage"
)

const uploadedMessage = "File uploaded"

// RemoteFetcher - контракт для скачивания исходника по URL
type RemoteFetcher interface {
	Fetch(ctx context.Context, rawURL string, limit int64) ([]byte, error)
}

type Options struct {
	SizeLimit      int64
	UploadsEnabled bool
	MaxDimension   int
	// MaxPixels - предел ширина*высота по заголовку исходника
	MaxPixels int64
	// Redirect - отдавать объекты редиректом, если хранилище это умеет
	Redirect bool
}

type ImageService struct {
	storage storage.Provider
	fetcher RemoteFetcher
	opts    Options
	newName func() string
}

func NewImageService(strg storage.Provider, f RemoteFetcher, opts Options) *ImageService {
	return &ImageService{
		storage: strg,
		fetcher: f,
		opts:    opts,
		newName: keygen.Generate,
	}
}

func (c ImageService) Upload(ctx context.Context, req *model.UploadRequest) (*model.UploadResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	if !c.opts.UploadsEnabled {
		return nil, model.ErrUploadsDisabled
	}

	if err := validateUploadRequest(req); err != nil {
		return nil, err
	}

	// достаем сырые байты из источника
	var raw []byte
	var err error
	switch {
	case req.URL != "":
		raw, err = c.fetcher.Fetch(ctx, req.URL, c.opts.SizeLimit)
		if err != nil {
			if !errors.Is(err, model.ErrPayloadTooLarge) {
				logger.Warn().Err(err).Msg("Failed to fetch source image")
			}
			return nil, err
		}
	default:
		raw, err = decodeInlineData(req.Data, c.opts.SizeLimit)
		if err != nil {
			return nil, err
		}
	}

	if int64(len(raw)) > c.opts.SizeLimit {
		return nil, model.ErrPayloadTooLarge
	}

	// приводим к единому формату хранения
	normalized, err := imageproc.Normalize(raw, imageproc.Limits{MaxDimension: c.opts.MaxDimension, MaxPixels: c.opts.MaxPixels})
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidImage):
			return nil, model.ErrInvalidImage
		case errors.Is(err, model.ErrPayloadTooLarge):
			logger.Warn().Err(err).Msg("Rejected oversized image")
			return nil, model.ErrPayloadTooLarge
		}
		logger.Error().Err(err).Msg("Failed to normalize image")
		return nil, model.ErrCommon500
	}

	filename := c.newName()
	url, err := c.storage.Save(ctx, filename, normalized)
	if err != nil {
		logger.Error().Err(err).Str("filename", filename).Msg("Failed to save image in Storage")
		return nil, model.ErrStorageWrite
	}

	logger.Info().Str("filename", filename).Int("size", len(normalized)).Msg("Image uploaded")
	return &model.UploadResult{Message: uploadedMessage, Filename: filename, URL: url}, nil
}

func (c ImageService) Serve(ctx context.Context, filename string) (*model.ServeResult, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := validateFilename(filename); err != nil {
		return nil, err
	}

	if ds, ok := c.storage.(storage.DirectServer); ok && c.opts.Redirect {
		exists, err := c.storage.Exists(ctx, filename)
		if err != nil {
			logger.Error().Err(err).Str("filename", filename).Msg("Failed to check image in Storage")
			return nil, model.ErrStorageRead
		}
		if !exists {
			return nil, model.ErrFileNotFound
		}
		return &model.ServeResult{RedirectURL: ds.DirectURL(filename)}, nil
	}

	data, err := c.storage.Read(ctx, filename)
	if err != nil {
		if errors.Is(err, model.ErrFileNotFound) {
			return nil, model.ErrFileNotFound // 404
		}
		logger.Error().Err(err).Str("filename", filename).Msg("Failed to read image from Storage")
		return nil, model.ErrStorageRead
	}

	return &model.ServeResult{Data: data, ContentType: model.ContentTypeFor(filename)}, nil
}

func (c ImageService) Delete(ctx context.Context, filename string) error {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := validateFilename(filename); err != nil {
		return err
	}

	if err := c.storage.Delete(ctx, filename); err != nil {
		if errors.Is(err, model.ErrFileNotFound) {
			return model.ErrFileNotFound // 404
		}
		logger.Error().Err(err).Str("filename", filename).Msg("Failed to delete image from Storage")
		return model.ErrStorageWrite
	}

	logger.Info().Str("filename", filename).Msg("Image deleted")
	return nil
}

func (c ImageService) List(ctx context.Context) ([]model.FileInfo, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	files, err := c.storage.List(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list images in Storage")
		return nil, model.ErrStorageRead
	}
	return files, nil
}

func (c ImageService) Count(ctx context.Context) (int, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	n, err := c.storage.Count(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to count images in Storage")
		return 0, model.ErrStorageRead
	}
	return n, nil
}

func (c ImageService) TotalSize(ctx context.Context) (int64, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	size, err := c.storage.TotalSize(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to sum image sizes in Storage")
		return 0, model.ErrStorageRead
	}
	return size, nil
}

// MaxRequestBody - верхняя граница тела запроса /upload: base64 раздувает данные на 4/3
func (c ImageService) MaxRequestBody() int64 {
	return maxEncodedLen(c.opts.SizeLimit) + 64*1024
}
