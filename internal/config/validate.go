package config

import "fmt"

// Validate reports the first invalid configuration value found.
func (c *Config) Validate() error {
	if c.Search.Steps < 1 {
		return fmt.Errorf("search.steps must be at least 1, got %d", c.Search.Steps)
	}
	if c.Search.SampleSeconds < 1 {
		return fmt.Errorf("search.sample_seconds must be at least 1, got %d", c.Search.SampleSeconds)
	}
	if c.Search.BitrateCorrection < 0 {
		return fmt.Errorf("search.bitrate_correction must not be negative, got %d", c.Search.BitrateCorrection)
	}
	if c.Search.BitrateSlack < 0 {
		return fmt.Errorf("search.bitrate_slack must not be negative, got %d", c.Search.BitrateSlack)
	}
	if c.Audio.StereoBitrate < 1 {
		return fmt.Errorf("audio.stereo_bitrate must be positive, got %d", c.Audio.StereoBitrate)
	}
	if c.Audio.SurroundBitrate < 1 {
		return fmt.Errorf("audio.surround_bitrate must be positive, got %d", c.Audio.SurroundBitrate)
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
