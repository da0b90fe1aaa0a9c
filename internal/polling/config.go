package polling

import "time"

// DefaultInterval is the probe period used when none is configured.
const DefaultInterval = 500 * time.Millisecond

// Config holds the polling configuration
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
}

// NewConfig returns a config with the given timeout and the default interval.
func NewConfig(timeout time.Duration) *Config {
	return &Config{Interval: DefaultInterval, Timeout: timeout}
}
