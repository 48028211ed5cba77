package ads

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlacementReport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customers/123/googleAds:searchStream", r.URL.Path)
		assert.Equal(t, "dev-token", r.Header.Get("developer-token"))
		assert.Equal(t, "Bearer access-token", r.Header.Get("Authorization"))
		assert.Equal(t, "999", r.Header.Get("login-customer-id"))

		_, _ = w.Write([]byte(`[
			{"results": [{
				"customer": {"id": "123"},
				"groupPlacementView": {"placement": "UC111", "targetUrl": "youtube.com/channel/UC111"},
				"metrics": {"impressions": "1500", "costMicros": "2000000", "clicks": "12", "videoViews": "900", "ctr": 0.008, "conversions": 1.5}
			}]},
			{"results": [{
				"customer": {"id": "123"},
				"groupPlacementView": {"placement": "UC222"},
				"metrics": {}
			}]}
		]`))
	}))
	defer server.Close()

	client := NewClient(Config{
		Endpoint:        server.URL,
		DeveloperToken:  "dev-token",
		AccessToken:     "access-token",
		LoginCustomerID: "999",
	})

	records, err := client.PlacementReport(context.Background(), "123", "SELECT ...")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "UC111", records[0].Placement)
	assert.Equal(t, int64(1500), records[0].Impressions)
	assert.Equal(t, int64(2000000), records[0].CostMicros)
	assert.Equal(t, 0.008, records[0].CTR)
	assert.Equal(t, 1.5, records[0].Conversions)

	// Absent metrics default to typed zeros.
	assert.Equal(t, "UC222", records[1].Placement)
	assert.Zero(t, records[1].Impressions)
}

func TestApplyExclusions(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/customers/123/sharedCriteria:mutate", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		Endpoint:       server.URL,
		DeveloperToken: "dev-token",
		AccessToken:    "access-token",
		SharedSetID:    "555",
		ValidateOnly:   true,
	})

	result, err := client.ApplyExclusions(context.Background(), "123", []string{"UC111", "UC222"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Applied)
	assert.True(t, result.ValidateOnly)

	assert.Equal(t, true, captured["validateOnly"])
	operations := captured["operations"].([]any)
	require.Len(t, operations, 2)
	create := operations[0].(map[string]any)["create"].(map[string]any)
	assert.Equal(t, "customers/123/sharedSets/555", create["sharedSet"])
	assert.Equal(t, map[string]any{"channelId": "UC111"}, create["youtubeChannel"])
}

func TestApplyExclusions_EmptyBatchSkipsAPICall(t *testing.T) {
	client := NewClient(Config{
		Endpoint:       "https://example.invalid",
		DeveloperToken: "dev-token",
		SharedSetID:    "555",
	})

	result, err := client.ApplyExclusions(context.Background(), "123", nil)
	require.NoError(t, err)
	assert.Zero(t, result.Applied)
}

func TestApplyExclusions_MissingSharedSet(t *testing.T) {
	client := NewClient(Config{Endpoint: "https://example.invalid", DeveloperToken: "dev-token"})
	_, err := client.ApplyExclusions(context.Background(), "123", []string{"UC111"})
	assert.Error(t, err)
}

func TestPlacementReport_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"status": "PERMISSION_DENIED"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(Config{Endpoint: server.URL, DeveloperToken: "dev-token"})
	_, err := client.PlacementReport(context.Background(), "123", "SELECT ...")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
