// Package status proxies the UptimeRobot monitor list so the API key stays
// on the server.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const DefaultBaseURL = "https://api.uptimerobot.com"

var (
	ErrNoAPIKey = errors.New("API key not found")
	// ErrUnavailable covers transport and decoding failures.
	ErrUnavailable = errors.New("monitor service unavailable")
)

// ProviderError is a response the provider marked with stat "fail".
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

type envelope struct {
	Stat  string `json:"stat"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type Client struct {
	apiKey string
	http   *resty.Client
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey: apiKey,
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(20 * time.Second),
	}
}

// Monitors returns the provider's getMonitors document exactly as received.
func (c *Client) Monitors(ctx context.Context) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"api_key": c.apiKey,
			"format":  "json",
		}).
		Post("/v2/getMonitors")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	body := resp.Body()
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	if env.Stat == "fail" {
		if env.Error == nil {
			return nil, fmt.Errorf("%w: failure without message", ErrUnavailable)
		}
		return nil, &ProviderError{Message: env.Error.Message}
	}
	return body, nil
}

// Label names an UptimeRobot monitor status code.
func Label(code int) string {
	switch code {
	case 0:
		return "DOWN"
	case 1:
		return "MAYBE"
	case 2:
		return "UP"
	case 8:
		return "NOT CHECKED YET"
	case 9:
		return "PAUSED"
	default:
		return "UNKNOWN"
	}
}

// WithLabels adds a status_label field next to every monitor's status.
func WithLabels(body []byte) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode monitors: %w", err)
	}
	monitors, _ := doc["monitors"].([]any)
	for _, m := range monitors {
		monitor, ok := m.(map[string]any)
		if !ok {
			continue
		}
		code, _ := monitor["status"].(float64)
		monitor["status_label"] = Label(int(code))
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode monitors: %w", err)
	}
	return out, nil
}
