// Package config provides configuration management for the placement excluder.
//
// It utilizes Viper for loading configuration from environment variables and
// an optional .env file.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Storage: S3/MinIO credentials and bucket settings
//   - Log: Logging level and format
//   - Database: tracking database connection details
//   - Bus: Redis message bus settings
//   - Warehouse: Snowflake connection details
//   - Ads: ad platform API credentials and the shared exclusion list
//   - Enrich: channel metadata lookup settings
//   - Pipeline: default configuration sheet for scheduled runs
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
