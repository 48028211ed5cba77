package enrich

// Config holds configuration for the enrichment stage.
type Config struct {
	// Endpoint is the base URL of the metadata lookup API.
	Endpoint string `mapstructure:"endpoint" default:"https://www.googleapis.com/youtube/v3"`
	// APIKey authenticates lookup calls.
	APIKey string `mapstructure:"api_key" default:""`
	// TranslateEndpoint is the base URL of the language detection API.
	TranslateEndpoint string `mapstructure:"translate_endpoint" default:"https://translation.googleapis.com/language/translate/v2"`
	// TranslateAPIKey authenticates detection calls. Empty disables title
	// language detection entirely.
	TranslateAPIKey string `mapstructure:"translate_api_key" default:""`
	// ChunkSize is the maximum ids per lookup call. The channels.list API
	// documents a maximum of 50.
	ChunkSize int `mapstructure:"chunk_size" default:"50"`
	// Concurrency bounds how many chunk lookups run in parallel.
	Concurrency int `mapstructure:"concurrency" default:"4"`
	// TimeoutSeconds bounds each lookup call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}
