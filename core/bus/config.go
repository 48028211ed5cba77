package bus

// Config holds configuration for the Redis-backed message bus.
type Config struct {
	// Addr is the Redis host:port.
	Addr string `mapstructure:"addr" default:"localhost:6379"`
	// Password is the Redis password, if any.
	Password string `mapstructure:"password" default:""`
	// DB is the Redis database number.
	DB int `mapstructure:"db" default:"0"`
	// PollSeconds is how long a subscriber blocks waiting for a message
	// before re-checking for cancellation.
	PollSeconds int `mapstructure:"poll_seconds" default:"5"`
	// MaxDeliveries is the number of delivery attempts before a message is
	// parked on the dead-letter list instead of being re-queued.
	MaxDeliveries int `mapstructure:"max_deliveries" default:"5"`
}
