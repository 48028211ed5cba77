package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// YouTubeLister implements ChannelLister against the YouTube Data API v3
// channels.list endpoint.
type YouTubeLister struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewYouTubeLister creates a lister for the configured endpoint and API key.
func NewYouTubeLister(cfg Config) *YouTubeLister {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	return &YouTubeLister{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// List fetches statistics, snippet and branding settings for the given
// channel ids in a single call.
func (l *YouTubeLister) List(ctx context.Context, ids []string) (Page, error) {
	if l.apiKey == "" {
		return Page{}, fmt.Errorf("youtube API key not configured")
	}

	params := url.Values{}
	params.Set("part", "id,statistics,snippet,brandingSettings")
	params.Set("id", strings.Join(ids, ","))
	params.Set("maxResults", fmt.Sprintf("%d", len(ids)))
	params.Set("key", l.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		l.endpoint+"/channels?"+params.Encode(), nil)
	if err != nil {
		return Page{}, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("channels.list request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, fmt.Errorf("failed to read channels.list response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return Page{}, fmt.Errorf("channels.list error %d: %s", resp.StatusCode, string(body))
	}

	var decoded struct {
		Items    []Item `json:"items"`
		PageInfo struct {
			TotalResults int `json:"totalResults"`
		} `json:"pageInfo"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Page{}, fmt.Errorf("failed to decode channels.list response: %w", err)
	}

	return Page{Items: decoded.Items, TotalResults: decoded.PageInfo.TotalResults}, nil
}
