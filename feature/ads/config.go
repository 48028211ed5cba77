package ads

// Config holds configuration for the ad platform API.
type Config struct {
	// Endpoint is the base URL of the ads REST API.
	Endpoint string `mapstructure:"endpoint" default:"https://googleads.googleapis.com/v16"`
	// DeveloperToken authenticates the application.
	DeveloperToken string `mapstructure:"developer_token" default:""`
	// AccessToken is the OAuth bearer token used for requests.
	AccessToken string `mapstructure:"access_token" default:""`
	// LoginCustomerID is the manager account id sent with each request.
	LoginCustomerID string `mapstructure:"login_customer_id" default:""`
	// SharedSetID is the shared exclusion list placements are added to.
	SharedSetID string `mapstructure:"shared_set_id" default:""`
	// ValidateOnly performs full validation of exclusions without
	// committing them. Used for dry runs.
	ValidateOnly bool `mapstructure:"validate_only" default:"false"`
	// TimeoutSeconds bounds each API call.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
}
