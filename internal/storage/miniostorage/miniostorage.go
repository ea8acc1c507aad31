// Package miniostorage provides structure to work with any S3-compatible storage (AWS S3, R2, MinIO)
package miniostorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/UnendingLoop/ImageHost/internal/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const awsEndpoint = "s3.amazonaws.com"

type Options struct {
	Endpoint     string // с протоколом; пусто - AWS
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	CustomDomain string
	CreateBucket bool
}

type MinioImageStorage struct {
	bucket    string
	client    *minio.Client
	publicURL func(key string) string
}

// NewMinioStorage creates the client and verifies that the bucket is reachable,
// creating it only when opts.CreateBucket is set.
func NewMinioStorage(ctx context.Context, opts Options) (*MinioImageStorage, error) {
	if opts.Bucket == "" {
		return nil, errors.New("bucket name is empty")
	}

	ep, err := parseEndpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}

	region := opts.Region
	if ep.aws && (region == "" || region == "auto") {
		region = "us-east-1"
	}

	// подключаемся к хранилищу - создаем клиента
	client, err := minio.New(ep.host, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: ep.secure,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	if err := ensureBucket(ctx, client, opts.Bucket, region, opts.CreateBucket); err != nil {
		return nil, err
	}

	return &MinioImageStorage{
		bucket:    opts.Bucket,
		client:    client,
		publicURL: publicURLBuilder(ep, opts.Bucket, region, opts.CustomDomain),
	}, nil
}

func (s *MinioImageStorage) Save(ctx context.Context, filename string, data []byte) (string, error) {
	if _, err := s.client.PutObject(ctx, s.bucket, filename, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: model.ContentTypeFor(filename),
	}); err != nil {
		return "", fmt.Errorf("put object %q: %v: %w", filename, err, model.ErrStorageWrite)
	}

	return s.PublicURL(filename), nil
}

func (s *MinioImageStorage) Read(ctx context.Context, filename string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, filename, minio.GetObjectOptions{})
	if err != nil {
		return nil, classifyReadErr(filename, err)
	}
	defer obj.Close()

	// GetObject ленивый - ошибка "нет такого ключа" всплывает только при чтении
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, classifyReadErr(filename, err)
	}
	return data, nil
}

// Delete не полагается на RemoveObject: S3 отвечает успехом и на отсутствующий ключ
func (s *MinioImageStorage) Delete(ctx context.Context, filename string) error {
	exists, err := s.Exists(ctx, filename)
	if err != nil {
		return err
	}
	if !exists {
		return model.ErrFileNotFound
	}

	if err := s.client.RemoveObject(ctx, s.bucket, filename, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %q: %v: %w", filename, err, model.ErrStorageWrite)
	}
	return nil
}

func (s *MinioImageStorage) Exists(ctx context.Context, filename string) (bool, error) {
	if _, err := s.client.StatObject(ctx, s.bucket, filename, minio.StatObjectOptions{}); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %q: %v: %w", filename, err, model.ErrStorageRead)
	}
	return true, nil
}

// List - клиент сам ходит по страницам ListObjectsV2
func (s *MinioImageStorage) List(ctx context.Context) ([]model.FileInfo, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var files []model.FileInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %v: %w", obj.Err, model.ErrStorageRead)
		}
		files = append(files, model.FileInfo{Filename: obj.Key, Size: obj.Size})
	}

	if files == nil {
		files = []model.FileInfo{}
	}
	return files, nil
}

func (s *MinioImageStorage) Count(ctx context.Context) (int, error) {
	files, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

func (s *MinioImageStorage) TotalSize(ctx context.Context) (int64, error) {
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

func (s *MinioImageStorage) PublicURL(filename string) string {
	return s.publicURL(filename)
}

// DirectURL - объект можно отдавать клиенту редиректом, минуя сервис
func (s *MinioImageStorage) DirectURL(filename string) string {
	return s.publicURL(filename)
}

func ensureBucket(ctx context.Context, client *minio.Client, bucket, region string, create bool) error {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket %q: %w", bucket, err)
	}

	if exists {
		return nil
	}
	if !create {
		return fmt.Errorf("bucket %q does not exist", bucket)
	}

	return client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region})
}

//--------------------

type endpoint struct {
	host   string
	secure bool
	base   string // scheme://host[/path] без завершающего слэша
	aws    bool
}

func parseEndpoint(raw string) (endpoint, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "/")
	if raw == "" {
		return endpoint{host: awsEndpoint, secure: true, base: "https://" + awsEndpoint, aws: true}, nil
	}

	if !strings.Contains(raw, "://") {
		return endpoint{host: raw, secure: true, base: "https://" + raw, aws: raw == awsEndpoint}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return endpoint{}, fmt.Errorf("parse endpoint %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return endpoint{}, fmt.Errorf("unsupported endpoint %q", raw)
	}

	return endpoint{
		host:   u.Host,
		secure: u.Scheme == "https",
		base:   raw,
		aws:    u.Host == awsEndpoint,
	}, nil
}

func publicURLBuilder(ep endpoint, bucket, region, customDomain string) func(string) string {
	if domain := strings.TrimRight(customDomain, "/"); domain != "" {
		return func(key string) string { return domain + "/" + key }
	}
	if ep.aws {
		return func(key string) string {
			return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, region, key)
		}
	}
	return func(key string) string { return ep.base + "/" + bucket + "/" + key }
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || (resp.StatusCode == http.StatusNotFound && resp.Code != "NoSuchBucket")
}

func classifyReadErr(filename string, err error) error {
	if isNotFound(err) {
		return model.ErrFileNotFound
	}
	return fmt.Errorf("get object %q: %v: %w", filename, err, model.ErrStorageRead)
}
