package mkvtoolnix

import (
	"context"
	"errors"
	"strings"

	"videoencode/internal/services"
)

// Extractor pulls elementary streams out of a container with mkvextract.
type Extractor struct {
	binary string
	exec   Executor
}

// NewExtractor constructs an mkvextract client. A nil executor selects the
// real subprocess implementation.
func NewExtractor(binary string, exec Executor) (*Extractor, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("mkvextract binary required")
	}
	return &Extractor{binary: binary, exec: resolveExecutor(exec)}, nil
}

// ExtractVideoTrack writes the container's first track (the video track of a
// freshly encoded file) as a raw elementary stream at destPath.
func (e *Extractor) ExtractVideoTrack(ctx context.Context, container, destPath string) error {
	args := []string{container, "tracks", "0:" + destPath}
	if err := e.exec.Run(ctx, e.binary, args); err != nil {
		return services.Wrap(services.ErrExternalTool, "mkvextract", "extract video track from "+container, err)
	}
	return nil
}
