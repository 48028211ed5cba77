package warehouse

// Config holds configuration for the Snowflake warehouse connection.
type Config struct {
	// Account is the Snowflake account identifier.
	Account string `mapstructure:"account" default:""`
	// User is the warehouse user.
	User string `mapstructure:"user" default:""`
	// Password is the warehouse password.
	Password string `mapstructure:"password" default:""`
	// Database is the database holding the excluder tables.
	Database string `mapstructure:"database" default:"PLACEMENT_EXCLUDER"`
	// Schema is the schema within the database.
	Schema string `mapstructure:"schema" default:"PUBLIC"`
	// Warehouse is the virtual warehouse used for queries.
	Warehouse string `mapstructure:"warehouse" default:""`
	// TimeoutSeconds bounds individual queries.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"60"`
}
