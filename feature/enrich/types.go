package enrich

// ChannelMetadata is the fixed output schema of the enrichment stage, one row
// per placement. Numeric counts are pointers: a nil count means the provider
// did not report the field, which is distinct from a reported zero and is
// preserved as NULL in the metadata table. A deleted channel, for example,
// surfaces as a row with nil counts rather than being dropped.
type ChannelMetadata struct {
	Placement               string
	ViewCount               *int64
	SubscriberCount         *int64
	VideoCount              *int64
	Title                   string
	TitleLanguage           string
	TitleLanguageConfidence float64
	Country                 string
	DefaultLanguage         string
	BrandDefaultLanguage    string
}

// Page is one lookup response from the metadata provider.
type Page struct {
	Items        []Item
	TotalResults int
}

// Item mirrors the provider's channel resource, reduced to the parts the
// pipeline consumes.
type Item struct {
	ID         string         `json:"id"`
	Statistics ItemStatistics `json:"statistics"`
	Snippet    ItemSnippet    `json:"snippet"`
	Branding   ItemBranding   `json:"brandingSettings"`
}

// ItemStatistics carries channel counters. The provider serializes counts as
// strings and omits hidden ones entirely.
type ItemStatistics struct {
	ViewCount       string `json:"viewCount"`
	SubscriberCount string `json:"subscriberCount"`
	VideoCount      string `json:"videoCount"`
}

// ItemSnippet carries channel descriptive fields.
type ItemSnippet struct {
	Title           string `json:"title"`
	Country         string `json:"country"`
	DefaultLanguage string `json:"defaultLanguage"`
}

// ItemBranding carries the branding settings subset used by the pipeline.
type ItemBranding struct {
	Channel struct {
		DefaultLanguage string `json:"defaultLanguage"`
	} `json:"channel"`
}
