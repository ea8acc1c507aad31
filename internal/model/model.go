// Package model provides data-structs and sentinel errors for internal app-usage
package model

import (
	"errors"
	"path/filepath"
	"strings"
)

// FileInfo - одна запись листинга хранилища
type FileInfo struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

// UploadRequest - ровно одно из полей должно быть заполнено
type UploadRequest struct {
	URL  string `json:"url"`
	Data string `json:"data"`
}

type UploadResult struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
	WEBP = "image/webp"
)

// TargetExt - все загрузки хранятся в одном формате
const (
	TargetExt   = ".png"
	TargetCType = PNG
)

var GetCType = map[string]string{
	".jpg":  JPEG,
	".jpeg": JPEG,
	".png":  PNG,
	".gif":  GIF,
	".webp": WEBP,
}

// ContentTypeFor returns the content type for a stored key, falling back to binary.
func ContentTypeFor(filename string) string {
	if ct, ok := GetCType[strings.ToLower(filepath.Ext(filename))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// ------------------

var (
	ErrCommon500         error = errors.New("something went wrong. Try again later")  // 500
	ErrUnauthorized      error = errors.New("invalid or missing API key")             // 401
	ErrInvalidRequest    error = errors.New("invalid upload request")                 // 400
	ErrIncorrectFilename error = errors.New("incorrect filename")                     // 400
	ErrInvalidImage      error = errors.New("provided data is not a supported image") // 400
	ErrPayloadTooLarge   error = errors.New("file size exceeds limit")                // 413
	ErrFileNotFound      error = errors.New("file not found")                         // 404
	ErrStorageWrite      error = errors.New("failed to write file to storage")        // 500
	ErrStorageRead       error = errors.New("failed to read from storage")            // 500
	ErrUpstreamFetch     error = errors.New("failed to fetch image from remote URL")  // 502
	ErrUploadsDisabled   error = errors.New("uploads are temporarily disabled")       // 503
)

// ServeResult - либо готовые байты, либо адрес для редиректа
type ServeResult struct {
	Data        []byte
	ContentType string
	RedirectURL string
}
