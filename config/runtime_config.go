package config

// RuntimeConfig defines the subset of the configuration that can be
// safely applied while the application is running. Hardware settings
// (pins, serial device, baud rate) require a restart.
type RuntimeConfig struct {
	Input   InputConfig   `yaml:"Input"`
	Display DisplayConfig `yaml:"Display"`
	LogSink LogSinkConfig `yaml:"LogSink"`
}

// Runtime extracts the runtime-safe subset of the configuration.
func (c *Config) Runtime() RuntimeConfig {
	return RuntimeConfig{
		Input:   c.Input,
		Display: c.Display,
		LogSink: c.LogSink,
	}
}
