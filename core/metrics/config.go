package metrics

// Config holds configuration for the prometheus endpoint.
type Config struct {
	// Enabled mounts the metrics endpoint on the HTTP server.
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Path is the route serving the prometheus exposition format.
	Path string `mapstructure:"path" default:"/metrics"`
}
