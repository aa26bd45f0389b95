package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Tools contains the external binary names the pipeline shells out to.
// Overriding an entry lets users point at wrapper scripts or absolute paths.
type Tools struct {
	FFprobe     string `toml:"ffprobe"`
	FFmpeg      string `toml:"ffmpeg"`
	HandBrake   string `toml:"handbrake"`
	MKVExtract  string `toml:"mkvextract"`
	MKVMerge    string `toml:"mkvmerge"`
	MKVPropEdit string `toml:"mkvpropedit"`
	DoviTool    string `toml:"dovi_tool"`
}

// Search contains tuning for the constant-quality search.
type Search struct {
	// Steps is the number of sample clips encoded per candidate quality.
	Steps int `toml:"steps"`
	// SampleSeconds caps the length of each sample clip.
	SampleSeconds int `toml:"sample_seconds"`
	// BitrateCorrection is added to each sample's measured bitrate (kbps) to
	// compensate for short-sample measurement bias.
	BitrateCorrection int `toml:"bitrate_correction"`
	// BitrateSlack widens the acceptance band above the target (kbps).
	BitrateSlack int `toml:"bitrate_slack"`
}

// Audio contains the two fixed audio encoding profiles.
type Audio struct {
	StereoEncoder   string `toml:"stereo_encoder"`
	StereoBitrate   int    `toml:"stereo_bitrate"`
	SurroundEncoder string `toml:"surround_encoder"`
	SurroundBitrate int    `toml:"surround_bitrate"`
	SurroundMixdown string `toml:"surround_mixdown"`
}

// History contains configuration for the encode history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for video-encode.
type Config struct {
	Tools   Tools   `toml:"tools"`
	Search  Search  `toml:"search"`
	Audio   Audio   `toml:"audio"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/video-encode/config.toml")
}

// Load locates, parses, and validates a configuration file. Missing files are
// not an error: defaults apply. The returned path is where the config was (or
// would be) read from; exists reports whether a file was found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
