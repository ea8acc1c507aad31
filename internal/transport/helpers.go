package transport

import (
	"errors"
	"net/http"

	"github.com/UnendingLoop/ImageHost/internal/model"
	"github.com/wb-go/wbf/ginext"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500),
		errors.Is(err, model.ErrStorageWrite),
		errors.Is(err, model.ErrStorageRead):
		return http.StatusInternalServerError
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidRequest),
		errors.Is(err, model.ErrIncorrectFilename),
		errors.Is(err, model.ErrInvalidImage):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, model.ErrUpstreamFetch):
		return http.StatusBadGateway
	case errors.Is(err, model.ErrUploadsDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError - неизвестные ошибки наружу не отдаем, только общий текст
func writeError(ctx *ginext.Context, err error) {
	code := errorCodeDefiner(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = model.ErrCommon500.Error()
	}
	ctx.AbortWithStatusJSON(code, map[string]string{"error": msg})
}
