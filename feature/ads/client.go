package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the ads REST API. It implements both Reporter (placement
// performance report via searchStream) and Mutator (shared-criteria mutate).
type Client struct {
	cfg    Config
	client *http.Client
}

// NewClient creates an ads API client.
func NewClient(cfg Config) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 60
	}
	cfg.Endpoint = strings.TrimSuffix(cfg.Endpoint, "/")
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(timeout) * time.Second},
	}
}

type searchResult struct {
	Customer struct {
		ID string `json:"id"`
	} `json:"customer"`
	GroupPlacementView struct {
		Placement string `json:"placement"`
		TargetURL string `json:"targetUrl"`
	} `json:"groupPlacementView"`
	Metrics struct {
		Impressions               int64   `json:"impressions,string"`
		CostMicros                int64   `json:"costMicros,string"`
		Conversions               float64 `json:"conversions"`
		VideoViews                int64   `json:"videoViews,string"`
		VideoViewRate             float64 `json:"videoViewRate"`
		Clicks                    int64   `json:"clicks,string"`
		AverageCPM                float64 `json:"averageCpm"`
		CTR                       float64 `json:"ctr"`
		InteractionConversionRate float64 `json:"allConversionsFromInteractionsRate"`
	} `json:"metrics"`
}

// PlacementReport runs the report query through searchStream and flattens
// the response batches into placement records.
func (c *Client) PlacementReport(ctx context.Context, customerID, query string) ([]PlacementRecord, error) {
	url := fmt.Sprintf("%s/customers/%s/googleAds:searchStream", c.cfg.Endpoint, customerID)
	body, err := c.post(ctx, url, map[string]any{"query": query})
	if err != nil {
		return nil, err
	}

	var batches []struct {
		Results []searchResult `json:"results"`
	}
	if err := json.Unmarshal(body, &batches); err != nil {
		return nil, fmt.Errorf("failed to decode searchStream response: %w", err)
	}

	var records []PlacementRecord
	for _, batch := range batches {
		for _, r := range batch.Results {
			records = append(records, PlacementRecord{
				CustomerID:                r.Customer.ID,
				Placement:                 r.GroupPlacementView.Placement,
				TargetURL:                 r.GroupPlacementView.TargetURL,
				Impressions:               r.Metrics.Impressions,
				CostMicros:                r.Metrics.CostMicros,
				Conversions:               r.Metrics.Conversions,
				VideoViews:                r.Metrics.VideoViews,
				VideoViewRate:             r.Metrics.VideoViewRate,
				Clicks:                    r.Metrics.Clicks,
				AverageCPM:                r.Metrics.AverageCPM,
				CTR:                       r.Metrics.CTR,
				InteractionConversionRate: r.Metrics.InteractionConversionRate,
			})
		}
	}
	return records, nil
}

// ApplyExclusions adds the placements to the configured shared exclusion
// list as YouTube channel criteria. With ValidateOnly set the API performs
// full validation and returns without committing.
func (c *Client) ApplyExclusions(ctx context.Context, customerID string, placements []string) (MutateResult, error) {
	if c.cfg.SharedSetID == "" {
		return MutateResult{}, fmt.Errorf("shared set id not configured")
	}
	if len(placements) == 0 {
		return MutateResult{ValidateOnly: c.cfg.ValidateOnly}, nil
	}

	sharedSet := fmt.Sprintf("customers/%s/sharedSets/%s", customerID, c.cfg.SharedSetID)
	operations := make([]map[string]any, 0, len(placements))
	for _, placement := range placements {
		operations = append(operations, map[string]any{
			"create": map[string]any{
				"sharedSet":      sharedSet,
				"youtubeChannel": map[string]string{"channelId": placement},
			},
		})
	}

	url := fmt.Sprintf("%s/customers/%s/sharedCriteria:mutate", c.cfg.Endpoint, customerID)
	payload := map[string]any{
		"operations":   operations,
		"validateOnly": c.cfg.ValidateOnly,
	}
	if _, err := c.post(ctx, url, payload); err != nil {
		return MutateResult{}, err
	}

	return MutateResult{Applied: len(placements), ValidateOnly: c.cfg.ValidateOnly}, nil
}

func (c *Client) post(ctx context.Context, url string, payload any) ([]byte, error) {
	if c.cfg.DeveloperToken == "" {
		return nil, fmt.Errorf("ads developer token not configured")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("developer-token", c.cfg.DeveloperToken)
	if c.cfg.LoginCustomerID != "" {
		req.Header.Set("login-customer-id", c.cfg.LoginCustomerID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ads API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read ads API response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("ads API error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
