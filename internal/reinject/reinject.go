// Package reinject restores HDR and Dolby Vision metadata onto a freshly
// encoded file. The transcoder drops the RPU stream and the container-level
// HDR properties; this pipeline pulls both from the source and re-applies
// them to the output.
package reinject

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"videoencode/internal/media/ffprobe"
	"videoencode/internal/mediainfo"
	"videoencode/internal/services"
	"videoencode/internal/services/mkvtoolnix"
)

// Side data type tags ffprobe uses for the two static HDR records.
const (
	masteringDisplayType = "Mastering display metadata"
	contentLightType     = "Content light level metadata"
)

// AnnexBStreamer starts a copy-only remux of a file's video elementary
// stream in Annex-B framing. The consumer must close the stream and then
// call the wait function; closing an undrained stream unblocks a producer
// stuck writing into the pipe.
type AnnexBStreamer interface {
	StreamVideo(ctx context.Context, path string) (io.ReadCloser, func() error, error)
}

// FrameProber probes the first frame interval of a file's video stream.
type FrameProber interface {
	InspectFrames(ctx context.Context, path string) (ffprobe.FramesResult, error)
}

// VideoTrackExtractor pulls a container's video track as a raw stream.
type VideoTrackExtractor interface {
	ExtractVideoTrack(ctx context.Context, container, destPath string) error
}

// DonorRemuxer muxes a raw video stream with the non-video tracks of a donor
// container.
type DonorRemuxer interface {
	MergeVideoWithDonor(ctx context.Context, videoStream, donorContainer, frameRate, output string) error
}

// PropertyEditor applies container property edits.
type PropertyEditor interface {
	SetVideoProperties(ctx context.Context, file string, props []mkvtoolnix.Property) error
}

// RPUTool extracts and injects Dolby Vision RPU data.
type RPUTool interface {
	ExtractRPU(ctx context.Context, stream io.Reader, rpuPath string) error
	InjectRPU(ctx context.Context, videoIn, rpuPath, videoOut string) error
}

// Reinjector drives the post-encode metadata pipeline.
type Reinjector struct {
	annexb    AnnexBStreamer
	frames    FrameProber
	extractor VideoTrackExtractor
	remuxer   DonorRemuxer
	editor    PropertyEditor
	rpu       RPUTool
	logger    *slog.Logger
}

// New constructs a Reinjector.
func New(annexb AnnexBStreamer, frames FrameProber, extractor VideoTrackExtractor, remuxer DonorRemuxer, editor PropertyEditor, rpu RPUTool, logger *slog.Logger) *Reinjector {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reinjector{
		annexb:    annexb,
		frames:    frames,
		extractor: extractor,
		remuxer:   remuxer,
		editor:    editor,
		rpu:       rpu,
		logger:    logger,
	}
}

// Apply runs the Dolby Vision RPU transfer followed by the HDR static
// metadata transfer. Any tool failure aborts the run; when the final remux
// fails the encoded container survives under its ".old" rename for manual
// recovery.
func (r *Reinjector) Apply(ctx context.Context, desc mediainfo.Descriptor, encodedPath string) error {
	if err := r.injectDolbyVision(ctx, desc, encodedPath); err != nil {
		return err
	}
	return r.injectHDR(ctx, desc.Path, encodedPath)
}

func (r *Reinjector) injectDolbyVision(ctx context.Context, desc mediainfo.Descriptor, encodedPath string) error {
	dir := filepath.Dir(encodedPath)
	rpuPath := filepath.Join(dir, "RPU.bin")
	videoPath := filepath.Join(dir, "video.hevc")
	injectedPath := filepath.Join(dir, "inj.hevc")
	oldPath := encodedPath + ".old"

	r.logger.Info("extracting RPU from source", "source", desc.Path)
	stream, wait, err := r.annexb.StreamVideo(ctx, desc.Path)
	if err != nil {
		return err
	}
	extractErr := r.rpu.ExtractRPU(ctx, stream, rpuPath)
	// Close before wait: a failed extraction leaves the producer blocked on
	// an undrained pipe, and wait would never return.
	_ = stream.Close()
	waitErr := wait()
	if extractErr != nil {
		return extractErr
	}
	if waitErr != nil {
		return services.Wrap(services.ErrExternalTool, "reinject", "annex-b remux of "+desc.Path, waitErr)
	}

	r.logger.Info("extracting encoded video track", "file", encodedPath)
	if err := r.extractor.ExtractVideoTrack(ctx, encodedPath, videoPath); err != nil {
		return err
	}

	r.logger.Info("injecting RPU into encoded stream")
	if err := r.rpu.InjectRPU(ctx, videoPath, rpuPath, injectedPath); err != nil {
		return err
	}

	if err := os.Rename(encodedPath, oldPath); err != nil {
		return fmt.Errorf("set aside encoded file: %w", err)
	}

	r.logger.Info("remuxing injected stream", "output", encodedPath, "frame_rate", desc.FrameRate)
	if err := r.remuxer.MergeVideoWithDonor(ctx, injectedPath, oldPath, desc.FrameRate, encodedPath); err != nil {
		// The .old rename stays in place so the encode can be recovered by
		// hand.
		return err
	}

	for _, path := range []string{videoPath, injectedPath, rpuPath, oldPath} {
		if err := os.Remove(path); err != nil {
			r.logger.Warn("could not remove intermediate", "path", path, "error", err)
		}
	}
	return nil
}

// injectHDR copies mastering display and content light metadata from the
// source container onto the output's video track. Sources carrying neither
// record exit silently; this is not an error.
func (r *Reinjector) injectHDR(ctx context.Context, sourcePath, encodedPath string) error {
	frames, err := r.frames.InspectFrames(ctx, sourcePath)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "reinject", "probe HDR side data of "+sourcePath, err)
	}

	var mastering, contentLight *ffprobe.SideData
	for _, frame := range frames.Frames {
		for i := range frame.SideDataList {
			sd := frame.SideDataList[i]
			switch sd.Type {
			case masteringDisplayType:
				mastering = &frame.SideDataList[i]
			case contentLightType:
				contentLight = &frame.SideDataList[i]
			}
		}
	}
	if mastering == nil || contentLight == nil {
		r.logger.Info("no HDR static metadata in source, skipping", "source", sourcePath)
		return nil
	}

	props, err := hdrProperties(*mastering, *contentLight)
	if err != nil {
		return err
	}

	r.logger.Info("applying HDR static metadata", "file", encodedPath)
	return r.editor.SetVideoProperties(ctx, encodedPath, props)
}

// hdrProperties converts the two side data records into the mkvpropedit
// property set, turning each exact rational into its float form only at this
// last step.
func hdrProperties(mastering, contentLight ffprobe.SideData) ([]mkvtoolnix.Property, error) {
	fields := []struct {
		name  string
		value string
	}{
		{"chromaticity-coordinates-red-x", mastering.RedX},
		{"chromaticity-coordinates-red-y", mastering.RedY},
		{"chromaticity-coordinates-green-x", mastering.GreenX},
		{"chromaticity-coordinates-green-y", mastering.GreenY},
		{"chromaticity-coordinates-blue-x", mastering.BlueX},
		{"chromaticity-coordinates-blue-y", mastering.BlueY},
		{"white-coordinates-x", mastering.WhitePointX},
		{"white-coordinates-y", mastering.WhitePointY},
		{"max-luminance", mastering.MaxLuminance},
		{"min-luminance", mastering.MinLuminance},
	}

	props := []mkvtoolnix.Property{
		{Name: "max-content-light", Value: fmt.Sprintf("%d", contentLight.MaxContent)},
		{Name: "max-frame-light", Value: fmt.Sprintf("%d", contentLight.MaxAverage)},
	}
	for _, field := range fields {
		value, err := parseRational(field.value)
		if err != nil {
			return nil, services.Wrapf(services.ErrExternalTool, "reinject", "bad %s value %q", field.name, field.value)
		}
		props = append(props, mkvtoolnix.Property{Name: field.name, Value: formatFloat(value)})
	}
	return props, nil
}
