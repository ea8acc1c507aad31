package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"regexp"
	"testing"

	"github.com/UnendingLoop/ImageHost/internal/model"
	"github.com/UnendingLoop/ImageHost/internal/storage/memstorage"
	"github.com/stretchr/testify/require"
)

var filenameRe = regexp.MustCompile(`^[A-Za-z]{16}\.png$`)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

func newMemService(limit int64) (*ImageService, *memstorage.MemImageStorage) {
	strg := memstorage.NewMemStorage("http://localhost:9078")
	svc := NewImageService(strg, &mockFetcher{}, Options{SizeLimit: limit, UploadsEnabled: true})
	return svc, strg
}

// UPLOAD - INLINE DATA
func TestImageService_Upload_Inline(t *testing.T) {
	ctx := context.Background()
	src := pngBytes(t, 8, 6)

	tests := []struct {
		name string
		data string
	}{
		{name: "raw base64", data: base64.StdEncoding.EncodeToString(src)},
		{name: "unpadded base64", data: base64.RawStdEncoding.EncodeToString(src)},
		{name: "data url", data: "data:image/png;base64," + base64.StdEncoding.EncodeToString(src)},
		{name: "surrounding whitespace", data: "\n  " + base64.StdEncoding.EncodeToString(src) + "  \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, strg := newMemService(1 << 20)

			res, err := svc.Upload(ctx, &model.UploadRequest{Data: tt.data})
			require.NoError(t, err)
			require.Equal(t, uploadedMessage, res.Message)
			require.Regexp(t, filenameRe, res.Filename)
			require.Equal(t, "http://localhost:9078/"+res.Filename, res.URL)

			stored, err := strg.Read(ctx, res.Filename)
			require.NoError(t, err)
			cfg, format, err := image.DecodeConfig(bytes.NewReader(stored))
			require.NoError(t, err)
			require.Equal(t, "png", format)
			require.Equal(t, 8, cfg.Width)
			require.Equal(t, 6, cfg.Height)
		})
	}
}

// UPLOAD - URL
func TestImageService_Upload_URL(t *testing.T) {
	ctx := context.Background()
	strg := memstorage.NewMemStorage("")
	f := &mockFetcher{
		fetchFn: func(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
			require.Equal(t, "https://example.com/a.jpg", rawURL)
			require.Equal(t, int64(1<<20), limit)
			return jpegBytes(t, 10, 10), nil
		},
	}
	svc := NewImageService(strg, f, Options{SizeLimit: 1 << 20, UploadsEnabled: true})

	res, err := svc.Upload(ctx, &model.UploadRequest{URL: " https://example.com/a.jpg "})
	require.NoError(t, err)
	require.Regexp(t, filenameRe, res.Filename)

	served, err := svc.Serve(ctx, res.Filename)
	require.NoError(t, err)
	require.Equal(t, model.PNG, served.ContentType)
	require.Empty(t, served.RedirectURL)
	_, format, err := image.DecodeConfig(bytes.NewReader(served.Data))
	require.NoError(t, err)
	require.Equal(t, "png", format)
}

// UPLOAD - DOWNSCALE
func TestImageService_Upload_MaxDimension(t *testing.T) {
	ctx := context.Background()
	strg := memstorage.NewMemStorage("")
	svc := NewImageService(strg, &mockFetcher{}, Options{SizeLimit: 1 << 20, UploadsEnabled: true, MaxDimension: 10})

	res, err := svc.Upload(ctx, &model.UploadRequest{Data: base64.StdEncoding.EncodeToString(pngBytes(t, 40, 20))})
	require.NoError(t, err)

	stored, err := strg.Read(ctx, res.Filename)
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(stored))
	require.NoError(t, err)
	require.Equal(t, 10, cfg.Width)
	require.Equal(t, 5, cfg.Height)
}

// UPLOAD - PIXEL CAP
func TestImageService_Upload_MaxPixels(t *testing.T) {
	ctx := context.Background()
	strg := memstorage.NewMemStorage("")
	svc := NewImageService(strg, &mockFetcher{}, Options{SizeLimit: 1 << 20, UploadsEnabled: true, MaxPixels: 1000})

	_, err := svc.Upload(ctx, &model.UploadRequest{Data: base64.StdEncoding.EncodeToString(pngBytes(t, 40, 40))})
	require.ErrorIs(t, err, model.ErrPayloadTooLarge)

	n, err := strg.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = svc.Upload(ctx, &model.UploadRequest{Data: base64.StdEncoding.EncodeToString(pngBytes(t, 25, 40))})
	require.NoError(t, err)
}

// UPLOAD - FAILURES, NOTHING IS WRITTEN
func TestImageService_Upload_Rejected(t *testing.T) {
	ctx := context.Background()
	big := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0xAB}, 200))

	tests := []struct {
		name    string
		req     *model.UploadRequest
		fetchFn func(ctx context.Context, rawURL string, limit int64) ([]byte, error)
		wantErr error
	}{
		{name: "nil request", req: nil, wantErr: model.ErrInvalidRequest},
		{name: "neither", req: &model.UploadRequest{}, wantErr: model.ErrInvalidRequest},
		{name: "blank fields", req: &model.UploadRequest{URL: "  ", Data: "\n"}, wantErr: model.ErrInvalidRequest},
		{
			name:    "both",
			req:     &model.UploadRequest{URL: "https://example.com/a.jpg", Data: "aGVsbG8="},
			wantErr: model.ErrInvalidRequest,
		},
		{name: "inline too large", req: &model.UploadRequest{Data: big}, wantErr: model.ErrPayloadTooLarge},
		{name: "not base64", req: &model.UploadRequest{Data: "!!!not-base64!!!"}, wantErr: model.ErrInvalidImage},
		{name: "not an image", req: &model.UploadRequest{Data: "aGVsbG8gd29ybGQ="}, wantErr: model.ErrInvalidImage},
		{name: "data url without base64", req: &model.UploadRequest{Data: "data:image/png,abc"}, wantErr: model.ErrInvalidRequest},
		{
			name: "fetched too large",
			req:  &model.UploadRequest{URL: "https://example.com/big.png"},
			fetchFn: func(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
				return nil, model.ErrPayloadTooLarge
			},
			wantErr: model.ErrPayloadTooLarge,
		},
		{
			name: "fetcher ignores limit",
			req:  &model.UploadRequest{URL: "https://example.com/big.png"},
			fetchFn: func(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
				return make([]byte, limit+1), nil
			},
			wantErr: model.ErrPayloadTooLarge,
		},
		{
			name: "upstream failure",
			req:  &model.UploadRequest{URL: "https://example.com/a.png"},
			fetchFn: func(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
				return nil, model.ErrUpstreamFetch
			},
			wantErr: model.ErrUpstreamFetch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strg := memstorage.NewMemStorage("")
			svc := NewImageService(strg, &mockFetcher{fetchFn: tt.fetchFn}, Options{SizeLimit: 100, UploadsEnabled: true})

			res, err := svc.Upload(ctx, tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, res)

			n, err := strg.Count(ctx)
			require.NoError(t, err)
			require.Zero(t, n)
		})
	}
}

// UPLOAD - DISABLED
func TestImageService_Upload_Disabled(t *testing.T) {
	svc := NewImageService(&mockStorage{}, &mockFetcher{}, Options{SizeLimit: 1 << 20})

	_, err := svc.Upload(context.Background(), &model.UploadRequest{Data: "aGVsbG8="})
	require.ErrorIs(t, err, model.ErrUploadsDisabled)
}

// UPLOAD - STORAGE FAIL
func TestImageService_Upload_StorageError(t *testing.T) {
	strg := &mockStorage{
		saveFn: func(ctx context.Context, filename string, data []byte) (string, error) {
			require.Equal(t, "FixedNameForTest.png", filename)
			return "", errors.New("disk is full")
		},
	}
	svc := NewImageService(strg, &mockFetcher{}, Options{SizeLimit: 1 << 20, UploadsEnabled: true})
	svc.newName = func() string { return "FixedNameForTest.png" }

	_, err := svc.Upload(context.Background(), &model.UploadRequest{Data: base64.StdEncoding.EncodeToString(pngBytes(t, 2, 2))})
	require.ErrorIs(t, err, model.ErrStorageWrite)
}

// SERVE
func TestImageService_Serve(t *testing.T) {
	ctx := context.Background()
	svc, strg := newMemService(1 << 20)

	_, err := strg.Save(ctx, "AbcdefghAbcdefgh.png", []byte("png-bytes"))
	require.NoError(t, err)

	res, err := svc.Serve(ctx, "AbcdefghAbcdefgh.png")
	require.NoError(t, err)
	require.Equal(t, []byte("png-bytes"), res.Data)
	require.Equal(t, model.PNG, res.ContentType)

	_, err = svc.Serve(ctx, "Missing.png")
	require.ErrorIs(t, err, model.ErrFileNotFound)

	for _, bad := range []string{"", "../secret.png", `..\secret.png`, ".env", "a/b.png"} {
		_, err = svc.Serve(ctx, bad)
		require.ErrorIs(t, err, model.ErrIncorrectFilename, bad)
	}
}

// SERVE - REDIRECT
func TestImageService_Serve_Redirect(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		redirect  bool
		exists    bool
		existsErr error
		wantURL   string
		wantData  []byte
		wantErr   error
	}{
		{name: "redirect", redirect: true, exists: true, wantURL: "https://cdn.test/Img.png"},
		{name: "redirect missing", redirect: true, exists: false, wantErr: model.ErrFileNotFound},
		{name: "redirect backend down", redirect: true, existsErr: errors.New("timeout"), wantErr: model.ErrStorageRead},
		{name: "proxy", redirect: false, wantData: []byte("proxied")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strg := &mockDirectStorage{mockStorage{
				existsFn: func(ctx context.Context, filename string) (bool, error) {
					return tt.exists, tt.existsErr
				},
				readFn: func(ctx context.Context, filename string) ([]byte, error) {
					return []byte("proxied"), nil
				},
			}}
			svc := NewImageService(strg, &mockFetcher{}, Options{SizeLimit: 1, Redirect: tt.redirect})

			res, err := svc.Serve(ctx, "Img.png")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantURL, res.RedirectURL)
			require.Equal(t, tt.wantData, res.Data)
		})
	}
}

// DELETE
func TestImageService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, strg := newMemService(1 << 20)

	_, err := strg.Save(ctx, "ToBeDeletedNow.png", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "ToBeDeletedNow.png"))
	require.ErrorIs(t, svc.Delete(ctx, "ToBeDeletedNow.png"), model.ErrFileNotFound)
	require.ErrorIs(t, svc.Delete(ctx, "../ToBeDeletedNow.png"), model.ErrIncorrectFilename)

	_, err = svc.Serve(ctx, "ToBeDeletedNow.png")
	require.ErrorIs(t, err, model.ErrFileNotFound)
}

func TestImageService_Delete_StorageError(t *testing.T) {
	strg := &mockStorage{
		deleteFn: func(ctx context.Context, filename string) error {
			return errors.New("permission denied")
		},
	}
	svc := NewImageService(strg, &mockFetcher{}, Options{})

	require.ErrorIs(t, svc.Delete(context.Background(), "Img.png"), model.ErrStorageWrite)
}

// INVENTORY
func TestImageService_Inventory(t *testing.T) {
	ctx := context.Background()
	svc, strg := newMemService(1 << 20)

	files, err := svc.List(ctx)
	require.NoError(t, err)
	require.NotNil(t, files)
	require.Empty(t, files)

	_, err = strg.Save(ctx, "A.png", make([]byte, 10))
	require.NoError(t, err)
	_, err = strg.Save(ctx, "B.png", make([]byte, 32))
	require.NoError(t, err)

	// повторные вызовы без изменений дают одинаковый результат
	for range 2 {
		files, err = svc.List(ctx)
		require.NoError(t, err)
		require.ElementsMatch(t, []model.FileInfo{{Filename: "A.png", Size: 10}, {Filename: "B.png", Size: 32}}, files)

		n, err := svc.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, n)

		size, err := svc.TotalSize(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(42), size)
	}
}

func TestImageService_Inventory_StorageError(t *testing.T) {
	down := errors.New("bucket unreachable")
	strg := &mockStorage{
		listFn:      func(ctx context.Context) ([]model.FileInfo, error) { return nil, down },
		countFn:     func(ctx context.Context) (int, error) { return 0, down },
		totalSizeFn: func(ctx context.Context) (int64, error) { return 0, down },
	}
	svc := NewImageService(strg, &mockFetcher{}, Options{})
	ctx := context.Background()

	_, err := svc.List(ctx)
	require.ErrorIs(t, err, model.ErrStorageRead)
	_, err = svc.Count(ctx)
	require.ErrorIs(t, err, model.ErrStorageRead)
	_, err = svc.TotalSize(ctx)
	require.ErrorIs(t, err, model.ErrStorageRead)
}

func TestImageService_MaxRequestBody(t *testing.T) {
	svc := NewImageService(&mockStorage{}, &mockFetcher{}, Options{SizeLimit: 300})
	require.Equal(t, int64(400+64*1024), svc.MaxRequestBody())
}
