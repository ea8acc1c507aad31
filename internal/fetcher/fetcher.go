// Package fetcher downloads source images from remote URLs with a hard size cap
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/UnendingLoop/ImageHost/internal/model"
)

type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads rawURL and returns its body. No more than limit+1 bytes are ever read.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, limit int64) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("unsupported source URL: %w", model.ErrInvalidRequest)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %v: %w", err, model.ErrUpstreamFetch)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v: %w", err, model.ErrUpstreamFetch)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("remote responded %d: %w", resp.StatusCode, model.ErrUpstreamFetch)
	}

	// если сервер честно сообщил размер - отказываем сразу, не читая тело
	if resp.ContentLength > limit {
		return nil, model.ErrPayloadTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %v: %w", err, model.ErrUpstreamFetch)
	}
	if int64(len(data)) > limit {
		return nil, model.ErrPayloadTooLarge
	}

	return data, nil
}
