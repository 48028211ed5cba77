package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateDetector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/detect", r.URL.Path)
		assert.Equal(t, "Wie heißt du", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		_, _ = w.Write([]byte(`{"data": {"detections": [[{"language": "de", "confidence": 0.97}]]}}`))
	}))
	defer server.Close()

	d := NewTranslateDetector(Config{TranslateEndpoint: server.URL, TranslateAPIKey: "test-key"})
	require.NotNil(t, d)

	language, confidence, err := d.Detect(context.Background(), "Wie heißt du")
	require.NoError(t, err)
	assert.Equal(t, "de", language)
	assert.Equal(t, 0.97, confidence)
}

func TestNewTranslateDetector_NoKeyDisables(t *testing.T) {
	assert.Nil(t, NewTranslateDetector(Config{}))
}

func TestTranslateDetector_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"status": "INVALID_ARGUMENT"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	d := NewTranslateDetector(Config{TranslateEndpoint: server.URL, TranslateAPIKey: "test-key"})
	_, _, err := d.Detect(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestTranslateDetector_EmptyDetections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": {"detections": []}}`))
	}))
	defer server.Close()

	d := NewTranslateDetector(Config{TranslateEndpoint: server.URL, TranslateAPIKey: "test-key"})
	_, _, err := d.Detect(context.Background(), "hello")
	assert.Error(t, err)
}
