package config

import "strings"

// normalize trims string fields, fills empty values from defaults, and
// expands the history database path.
func (c *Config) normalize() error {
	defaults := Default()

	fill := func(value *string, fallback string) {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			*value = fallback
		}
	}

	fill(&c.Tools.FFprobe, defaults.Tools.FFprobe)
	fill(&c.Tools.FFmpeg, defaults.Tools.FFmpeg)
	fill(&c.Tools.HandBrake, defaults.Tools.HandBrake)
	fill(&c.Tools.MKVExtract, defaults.Tools.MKVExtract)
	fill(&c.Tools.MKVMerge, defaults.Tools.MKVMerge)
	fill(&c.Tools.MKVPropEdit, defaults.Tools.MKVPropEdit)
	fill(&c.Tools.DoviTool, defaults.Tools.DoviTool)

	if c.Search.Steps == 0 {
		c.Search.Steps = defaults.Search.Steps
	}
	if c.Search.SampleSeconds == 0 {
		c.Search.SampleSeconds = defaults.Search.SampleSeconds
	}

	fill(&c.Audio.StereoEncoder, defaults.Audio.StereoEncoder)
	fill(&c.Audio.SurroundEncoder, defaults.Audio.SurroundEncoder)
	fill(&c.Audio.SurroundMixdown, defaults.Audio.SurroundMixdown)
	if c.Audio.StereoBitrate == 0 {
		c.Audio.StereoBitrate = defaults.Audio.StereoBitrate
	}
	if c.Audio.SurroundBitrate == 0 {
		c.Audio.SurroundBitrate = defaults.Audio.SurroundBitrate
	}

	fill(&c.History.Path, defaults.History.Path)
	expanded, err := expandPath(c.History.Path)
	if err != nil {
		return err
	}
	c.History.Path = expanded

	fill(&c.Logging.Format, defaults.Logging.Format)
	fill(&c.Logging.Level, defaults.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	c.Logging.Level = strings.ToLower(c.Logging.Level)

	return nil
}
