package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYouTubeLister_List(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "UC111,UC222", r.URL.Query().Get("id"))
		assert.Equal(t, "id,statistics,snippet,brandingSettings", r.URL.Query().Get("part"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"pageInfo": {"totalResults": 1},
			"items": [{
				"id": "UC111",
				"statistics": {"viewCount": "500", "subscriberCount": "20", "videoCount": "3"},
				"snippet": {"title": "Some Channel", "country": "DE"},
				"brandingSettings": {"channel": {"defaultLanguage": "de"}}
			}]
		}`))
	}))
	defer server.Close()

	lister := NewYouTubeLister(Config{Endpoint: server.URL, APIKey: "test-key"})
	page, err := lister.List(context.Background(), []string{"UC111", "UC222"})
	require.NoError(t, err)

	assert.Equal(t, 1, page.TotalResults)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "UC111", page.Items[0].ID)
	assert.Equal(t, "500", page.Items[0].Statistics.ViewCount)
	assert.Equal(t, "Some Channel", page.Items[0].Snippet.Title)
	assert.Equal(t, "de", page.Items[0].Branding.Channel.DefaultLanguage)
}

func TestYouTubeLister_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 403, "message": "quotaExceeded"}}`, http.StatusForbidden)
	}))
	defer server.Close()

	lister := NewYouTubeLister(Config{Endpoint: server.URL, APIKey: "test-key"})
	_, err := lister.List(context.Background(), []string{"UC111"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestYouTubeLister_MissingKey(t *testing.T) {
	lister := NewYouTubeLister(Config{Endpoint: "https://example.invalid"})
	_, err := lister.List(context.Background(), []string{"UC111"})
	assert.Error(t, err)
}
