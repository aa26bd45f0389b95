package reinject

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// FFmpegStreamer implements AnnexBStreamer with a real ffmpeg process whose
// stdout feeds the RPU extractor directly, with no intermediate file.
type FFmpegStreamer struct {
	Binary string
}

// StreamVideo starts the copy-only remux. The hevc_mp4toannexb filter
// rewrites the stream framing without touching the encoded pictures.
func (s FFmpegStreamer) StreamVideo(ctx context.Context, path string) (io.ReadCloser, func() error, error) {
	binary := strings.TrimSpace(s.Binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary,
		"-loglevel", "quiet",
		"-i", path,
		"-c:v", "copy",
		"-vbsf", "hevc_mp4toannexb",
		"-f", "hevc",
		"-")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	return stdout, cmd.Wait, nil
}
