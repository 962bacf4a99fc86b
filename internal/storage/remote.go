package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/thomasarchive/archive/internal/catalog"
)

// RemoteSource fetches catalog documents over HTTP, e.g. from the static
// site that also serves them to browsers.
type RemoteSource struct {
	client *resty.Client
}

func NewRemoteSource(baseURL string, timeout time.Duration) *RemoteSource {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &RemoteSource{client: client}
}

func (s *RemoteSource) Fetch(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get("/" + strings.TrimLeft(key, "/"))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return nil, fmt.Errorf("fetch %s: %w", key, catalog.ErrDocumentNotFound)
	case resp.IsError():
		return nil, fmt.Errorf("fetch %s: status %d", key, resp.StatusCode())
	}
	return resp.Body(), nil
}
