package reinject

import (
	"context"

	"videoencode/internal/media/ffprobe"
)

// FFprobeFrames implements FrameProber against the real ffprobe binary.
type FFprobeFrames struct {
	Binary string
}

func (p FFprobeFrames) InspectFrames(ctx context.Context, path string) (ffprobe.FramesResult, error) {
	return ffprobe.InspectFrames(ctx, p.Binary, path)
}
