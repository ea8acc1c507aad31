// Package config reads application settings once at startup into an immutable value
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	wbfconfig "github.com/wb-go/wbf/config"
)

type StorageType string

const (
	StorageLocal  StorageType = "local"
	StorageS3     StorageType = "s3"
	StorageMemory StorageType = "memory"
)

const (
	DefaultFileSizeLimit int64 = 20 * 1024 * 1024
	DefaultPort                = "9078"

	// DefaultMaxImagePixels - 50 мегапикселей, RGBA в памяти около 200 MiB
	DefaultMaxImagePixels int64 = 50_000_000
)

type Config struct {
	Port              string
	GinMode           string
	LogLevel          string
	APIKey            string
	FileSizeLimit     int64
	UploadsEnabled    bool
	RepoURL           string
	FetchTimeout      time.Duration
	MaxImageDimension int
	MaxImagePixels    int64

	StorageType         StorageType
	LocalStoragePath    string
	PublicBaseURL       string
	StorageConnectDelay time.Duration
	S3                  S3Config
}

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	CustomDomain    string
	CreateBucket    bool
	Redirect        bool
}

// Source - источник значений по ключу, wbf/config ему удовлетворяет
type Source interface {
	GetString(key string) string
}

// LoadFromEnv reads the process environment plus an optional .env file.
func LoadFromEnv(envFile string) (*Config, error) {
	appConfig := wbfconfig.New()
	appConfig.EnableEnv("")
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := appConfig.LoadEnvFiles(envFile); err != nil {
				return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
			}
		}
	}
	return Load(appConfig)
}

// Load builds and validates Config from src; every error names the offending key.
func Load(src Source) (*Config, error) {
	p := parser{src: src}
	port := p.getString("APP_PORT", DefaultPort)

	cfg := &Config{
		Port:              port,
		GinMode:           p.getString("GIN_MODE", "release"),
		LogLevel:          p.getString("LOG_LEVEL", "info"),
		APIKey:            p.getString("API_KEY", ""),
		FileSizeLimit:     p.getInt("FILESIZE_LIMIT", DefaultFileSizeLimit),
		UploadsEnabled:    p.getBool("UPLOADS_ENABLED", true),
		RepoURL:           p.getString("REPO_URL", "https://github.com/UnendingLoop/ImageHost"),
		FetchTimeout:      p.getDuration("FETCH_TIMEOUT", 30*time.Second),
		MaxImageDimension: int(p.getInt("MAX_IMAGE_DIMENSION", 0)),
		MaxImagePixels:    p.getInt("MAX_IMAGE_PIXELS", DefaultMaxImagePixels),

		StorageType:         StorageType(strings.ToLower(p.getString("STORAGE_TYPE", string(StorageLocal)))),
		LocalStoragePath:    p.getString("LOCAL_STORAGE_PATH", "files"),
		PublicBaseURL:       p.getString("PUBLIC_BASE_URL", "http://localhost:"+port),
		StorageConnectDelay: p.getDuration("STORAGE_CONNECT_DELAY", 10*time.Second),
		S3: S3Config{
			Endpoint:        p.getString("S3_ENDPOINT_URL", ""),
			AccessKeyID:     p.getString("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: p.getString("S3_SECRET_ACCESS_KEY", ""),
			Bucket:          p.getString("S3_BUCKET_NAME", ""),
			Region:          p.getString("S3_REGION", "auto"),
			CustomDomain:    p.getString("S3_CUSTOM_DOMAIN", ""),
			CreateBucket:    p.getBool("S3_CREATE_BUCKET", false),
			Redirect:        p.getBool("S3_REDIRECT", true),
		},
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required"))
	}
	if c.FileSizeLimit <= 0 {
		errs = append(errs, errors.New("FILESIZE_LIMIT must be positive"))
	}
	if c.MaxImagePixels <= 0 {
		errs = append(errs, errors.New("MAX_IMAGE_PIXELS must be positive"))
	}
	if c.MaxImageDimension < 0 {
		errs = append(errs, errors.New("MAX_IMAGE_DIMENSION must not be negative"))
	}

	switch c.StorageType {
	case StorageLocal:
		if c.LocalStoragePath == "" {
			errs = append(errs, errors.New("LOCAL_STORAGE_PATH is required for local storage"))
		}
	case StorageMemory:
	case StorageS3:
		var missing []string
		if c.S3.AccessKeyID == "" {
			missing = append(missing, "S3_ACCESS_KEY_ID")
		}
		if c.S3.SecretAccessKey == "" {
			missing = append(missing, "S3_SECRET_ACCESS_KEY")
		}
		if c.S3.Bucket == "" {
			missing = append(missing, "S3_BUCKET_NAME")
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Errorf("s3 storage requires %s", strings.Join(missing, ", ")))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_TYPE %q is not one of local, s3, memory", c.StorageType))
	}

	return errors.Join(errs...)
}

//--------------------

type parser struct {
	src  Source
	errs []error
}

func (p *parser) getString(key, def string) string {
	if v := strings.TrimSpace(p.src.GetString(key)); v != "" {
		return v
	}
	return def
}

func (p *parser) getInt(key string, def int64) int64 {
	raw := p.getString(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, raw))
		return def
	}
	return v
}

func (p *parser) getBool(key string, def bool) bool {
	raw := p.getString(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a boolean", key, raw))
		return def
	}
	return v
}

// getDuration принимает как "30s", так и целое число секунд
func (p *parser) getDuration(key string, def time.Duration) time.Duration {
	raw := p.getString(key, "")
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a duration", key, raw))
		return def
	}
	return v
}
