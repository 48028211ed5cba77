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

// TranslateDetector implements LanguageDetector against the Translation API
// v2 detect endpoint.
type TranslateDetector struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewTranslateDetector creates a detector. Returns nil when no API key is
// configured, which keeps detection disabled without special-casing callers.
func NewTranslateDetector(cfg Config) *TranslateDetector {
	if cfg.TranslateAPIKey == "" {
		return nil
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	return &TranslateDetector{
		endpoint: strings.TrimSuffix(cfg.TranslateEndpoint, "/"),
		apiKey:   cfg.TranslateAPIKey,
		client:   &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

// Detect returns the detected language code and the provider's confidence for
// the given text.
func (d *TranslateDetector) Detect(ctx context.Context, text string) (string, float64, error) {
	params := url.Values{}
	params.Set("q", text)
	params.Set("key", d.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.endpoint+"/detect?"+params.Encode(), nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("language detect request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read detect response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", 0, fmt.Errorf("language detect error %d: %s", resp.StatusCode, string(body))
	}

	var decoded struct {
		Data struct {
			Detections [][]struct {
				Language   string  `json:"language"`
				Confidence float64 `json:"confidence"`
			} `json:"detections"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", 0, fmt.Errorf("failed to decode detect response: %w", err)
	}

	if len(decoded.Data.Detections) == 0 || len(decoded.Data.Detections[0]) == 0 {
		return "", 0, fmt.Errorf("detect response contained no detections")
	}
	first := decoded.Data.Detections[0][0]
	return first.Language, first.Confidence, nil
}
