package config

import (
	"reflect"
	"strings"

	"placement-excluder/core/bus"
	"placement-excluder/core/database"
	"placement-excluder/core/logger"
	"placement-excluder/core/server"
	"placement-excluder/core/storage"
	"placement-excluder/core/warehouse"
	"placement-excluder/feature/ads"
	"placement-excluder/feature/enrich"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage (e.g., S3, Minio).
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the tracking database.
	Database database.Config `mapstructure:"database"`
	// Bus holds configuration for the stage message bus.
	Bus bus.Config `mapstructure:"bus"`
	// Warehouse holds configuration for the analytics warehouse.
	Warehouse warehouse.Config `mapstructure:"warehouse"`
	// Ads holds configuration for the ad platform API.
	Ads ads.Config `mapstructure:"ads"`
	// Enrich holds configuration for the channel metadata lookup.
	Enrich enrich.Config `mapstructure:"enrich"`
	// Pipeline holds configuration for the pipeline itself.
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// PipelineConfig holds the settings of the run coordinator that do not belong
// to any single collaborator.
type PipelineConfig struct {
	// SheetID is the default configuration sheet used by scheduled runs.
	SheetID string `mapstructure:"sheet_id" default:""`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env file if it exists
	// We construct the path to .env
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	// If it's a pointer, get the element
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		// Skip if no tag
		if tag == "" {
			continue
		}

		// Build the key
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		// If it's a nested struct, recurse
		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		defaultValue := field.Tag.Get("default")
		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, defaultValue)
	}
}
