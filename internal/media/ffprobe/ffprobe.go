package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  *Format  `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int               `json:"index"`
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	Height       int               `json:"height"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	Channels     int               `json:"channels"`
	Tags         map[string]string `json:"tags"`
	Disposition  Disposition       `json:"disposition"`
	SideDataList []SideData        `json:"side_data_list"`
}

// Disposition carries the stream disposition flags video-encode cares about.
type Disposition struct {
	Forced int `json:"forced"`
}

// SideData is one entry of a stream or frame side-data list. Mastering
// display chromaticities and luminances arrive as exact rational strings
// ("35400/50000"); they stay strings here so no precision is lost before the
// caller converts them.
type SideData struct {
	Type         string `json:"side_data_type"`
	RedX         string `json:"red_x"`
	RedY         string `json:"red_y"`
	GreenX       string `json:"green_x"`
	GreenY       string `json:"green_y"`
	BlueX        string `json:"blue_x"`
	BlueY        string `json:"blue_y"`
	WhitePointX  string `json:"white_point_x"`
	WhitePointY  string `json:"white_point_y"`
	MaxLuminance string `json:"max_luminance"`
	MinLuminance string `json:"min_luminance"`
	MaxContent   int    `json:"max_content"`
	MaxAverage   int    `json:"max_average"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename string `json:"filename"`
	Duration string `json:"duration"`
	Size     string `json:"size"`
	BitRate  string `json:"bit_rate"`
}

// FramesResult represents the parsed output of a frame-level inspection.
type FramesResult struct {
	Frames []Frame `json:"frames"`
}

// Frame carries per-frame side data.
type Frame struct {
	SideDataList []SideData `json:"side_data_list"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON
// stream and format description.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	output, err := run(ctx, binary, path,
		"-loglevel", "error",
		"-show_streams",
		"-show_format",
		"-print_format", "json")
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// InspectFrames probes the first frame interval of the first video stream for
// side data. Used to locate HDR mastering display and content light metadata.
func InspectFrames(ctx context.Context, binary string, path string) (FramesResult, error) {
	output, err := run(ctx, binary, path,
		"-loglevel", "error",
		"-select_streams", "v:0",
		"-show_frames",
		"-read_intervals", "%+#1",
		"-show_entries", "frame=side_data_list",
		"-print_format", "json")
	if err != nil {
		return FramesResult{}, err
	}

	var result FramesResult
	if err := json.Unmarshal(output, &result); err != nil {
		return FramesResult{}, fmt.Errorf("ffprobe frames parse: %w", err)
	}
	return result, nil
}

func run(ctx context.Context, binary string, path string, args ...string) ([]byte, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("ffprobe: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, append(args, "--", path)...)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ffprobe: %w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffprobe: %w", err)
	}
	return output, nil
}

// DurationSeconds returns the container duration in seconds, or NaN when
// unparseable.
func (r Result) DurationSeconds() float64 {
	if r.Format == nil {
		return math.NaN()
	}
	return parseFloat(r.Format.Duration)
}

// BitRate returns the container bitrate in bits per second, or NaN when
// unparseable.
func (r Result) BitRate() float64 {
	if r.Format == nil {
		return math.NaN()
	}
	return parseFloat(r.Format.BitRate)
}

// Language returns the stream's normalized-case language tag, or "" when
// absent.
func (s Stream) Language() string {
	for _, key := range []string{"language", "LANGUAGE", "Language"} {
		if value, ok := s.Tags[key]; ok {
			value = strings.TrimSpace(value)
			if value != "" {
				return strings.ToLower(value)
			}
		}
	}
	return ""
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return math.NaN()
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
