// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...Option) initializer to build a Config with defaults.
// - All future functions must accept context.Context as the first parameter.
// - External errors must be wrapped via this package's error helpers.
package config

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DefaultPageSize is the per-group page size used when a query does
	// not supply one.
	DefaultPageSize int `koanf:"default_page_size"`

	// MaxPageSize caps the page_size query parameter.
	MaxPageSize int `koanf:"max_page_size"`

	// FeedBufferSize bounds each feed subscription's update channel.
	FeedBufferSize int `koanf:"feed_buffer_size"`

	// SectionFilter restricts submission feeds to one section when set.
	SectionFilter string `koanf:"section_filter"`
}

// New creates a Config with defaults.
func New() *Config {
	c := &Config{
		LogLevel:        "info",
		Addr:            ":9080",
		DefaultPageSize: 20,
		MaxPageSize:     200,
		FeedBufferSize:  16,
		SectionFilter:   "",
	}
	return c
}
