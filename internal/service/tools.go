package service

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"

	"github.com/UnendingLoop/ImageHost/internal/model"
)

func validateUploadRequest(req *model.UploadRequest) error {
	if req == nil {
		return model.ErrInvalidRequest
	}
	req.URL = strings.TrimSpace(req.URL)
	req.Data = strings.TrimSpace(req.Data)

	// ровно один источник: либо URL, либо данные
	if (req.URL == "") == (req.Data == "") {
		return fmt.Errorf("exactly one of 'url' or 'data' is required: %w", model.ErrInvalidRequest)
	}
	return nil
}

// validateFilename - ключ должен быть плоским именем без путей; скрытые файлы не отдаем
func validateFilename(name string) error {
	switch {
	case name == "", len(name) > 255:
		return model.ErrIncorrectFilename
	case strings.ContainsAny(name, `/\`), strings.HasPrefix(name, "."):
		return model.ErrIncorrectFilename
	case strings.ContainsFunc(name, unicode.IsControl):
		return model.ErrIncorrectFilename
	}
	return nil
}

// decodeInlineData принимает data-URL или голый base64, с паддингом и без
func decodeInlineData(data string, limit int64) ([]byte, error) {
	if rest, ok := strings.CutPrefix(data, "data:"); ok {
		header, payload, found := strings.Cut(rest, ",")
		if !found || !strings.HasSuffix(header, ";base64") {
			return nil, fmt.Errorf("data URL must be base64-encoded: %w", model.ErrInvalidRequest)
		}
		data = payload
	}

	data = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, data)

	// отсекаем заведомо большие данные до декодирования
	if int64(len(data)) > maxEncodedLen(limit) {
		return nil, model.ErrPayloadTooLarge
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(data)
		if err != nil {
			return nil, model.ErrInvalidImage
		}
	}
	if len(raw) == 0 {
		return nil, model.ErrInvalidImage
	}
	return raw, nil
}

func maxEncodedLen(limit int64) int64 {
	return int64(base64.StdEncoding.EncodedLen(int(limit)))
}
