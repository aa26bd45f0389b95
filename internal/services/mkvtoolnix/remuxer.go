package mkvtoolnix

import (
	"context"
	"errors"
	"strings"

	"videoencode/internal/services"
)

// Remuxer rebuilds containers with mkvmerge.
type Remuxer struct {
	binary string
	exec   Executor
}

// NewRemuxer constructs an mkvmerge client. A nil executor selects the real
// subprocess implementation.
func NewRemuxer(binary string, exec Executor) (*Remuxer, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("mkvmerge binary required")
	}
	return &Remuxer{binary: binary, exec: resolveExecutor(exec)}, nil
}

// MergeVideoWithDonor muxes a raw video elementary stream together with every
// non-video track from donorContainer into output. frameRate is the source's
// rational avg_frame_rate ("24000/1001"); raw elementary streams carry no
// timing, so it becomes the video track's explicit default duration.
func (r *Remuxer) MergeVideoWithDonor(ctx context.Context, videoStream, donorContainer, frameRate, output string) error {
	if strings.TrimSpace(frameRate) == "" {
		return services.Wrapf(services.ErrConfiguration, "mkvmerge", "frame rate required for raw stream mux")
	}
	args := []string{
		"--default-duration", "0:" + frameRate + "fps",
		videoStream,
		"-D", donorContainer,
		"-o", output,
	}
	if err := r.exec.Run(ctx, r.binary, args); err != nil {
		return services.Wrap(services.ErrExternalTool, "mkvmerge", "mux "+output, err)
	}
	return nil
}
