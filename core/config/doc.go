// Package config provides configuration management for presence-sync.
//
// It loads an optional .env file with godotenv and then resolves every setting through
// Viper, using the `default` struct tags of each section as fallbacks and environment
// variables (SECTION_KEY) as overrides.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Storage: S3/MinIO credentials and the bucket holding recorded traces
//   - Log: Logging level and format
//   - Database: change journal connection (mysql or sqlite)
//   - Presence: state and diff event names
//   - Metrics: prometheus endpoint toggle and path
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Presence.DiffEvent)
package config
