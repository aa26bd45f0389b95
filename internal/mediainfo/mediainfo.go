// Package mediainfo builds immutable media descriptors from ffprobe output.
package mediainfo

import (
	"context"
	"errors"
	"io/fs"
	"math"
	"os"
	"strings"

	"videoencode/internal/language"
	"videoencode/internal/media/ffprobe"
	"videoencode/internal/services"
)

// doviSideDataType is the ffprobe tag identifying a Dolby Vision
// configuration record. Other side data kinds (HDR10 mastering metadata and
// the like) must not set the Dolby Vision flag.
const doviSideDataType = "DOVI configuration record"

// AudioTrack describes one audio stream with its transcoder-local index.
type AudioTrack struct {
	// Index is 1-based and counts audio streams only, matching the
	// transcoder's --audio N selector.
	Index    int
	Language string
	Channels int
}

// SubtitleTrack describes one subtitle stream with its transcoder-local index.
type SubtitleTrack struct {
	// Index is 1-based and counts subtitle streams only, matching the
	// transcoder's --subtitle N selector.
	Index    int
	Language string
	Forced   bool
	Codec    string
}

// Descriptor is an immutable snapshot of a probed file.
type Descriptor struct {
	Path   string
	Height int
	// FrameRate is the rational avg_frame_rate string ("24000/1001"). It is
	// echoed verbatim into remux parameters and must never be collapsed to a
	// float.
	FrameRate string
	// Duration is the container duration in seconds.
	Duration float64
	// BitRate is the container bitrate in bits per second.
	BitRate     float64
	DolbyVision bool
	Audio       []AudioTrack
	Subtitles   []SubtitleTrack
}

// PrimaryAudio returns the first audio track in container order.
func (d Descriptor) PrimaryAudio() (AudioTrack, bool) {
	if len(d.Audio) == 0 {
		return AudioTrack{}, false
	}
	return d.Audio[0], true
}

// Probe inspects path with ffprobe and builds its descriptor.
func Probe(ctx context.Context, binary string, path string) (Descriptor, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Descriptor{}, services.Wrapf(services.ErrProbe, "mediainfo", "file %s does not exist", path)
		}
		return Descriptor{}, services.Wrap(services.ErrProbe, "mediainfo", "stat "+path, err)
	}

	result, err := ffprobe.Inspect(ctx, binary, path)
	if err != nil {
		return Descriptor{}, services.Wrap(services.ErrProbe, "mediainfo", "inspect "+path, err)
	}
	return FromResult(path, result)
}

// FromResult assembles a descriptor from parsed ffprobe output. The first
// video stream is the stream of interest; additional video streams are
// ignored. Audio and subtitle tracks are collected in container order with
// per-type 1-based indices assigned in a second pass so the numbering never
// depends on the container's global stream layout.
func FromResult(path string, result ffprobe.Result) (Descriptor, error) {
	if len(result.Streams) == 0 {
		return Descriptor{}, services.Wrapf(services.ErrProbe, "mediainfo", "no streams reported for %s", path)
	}
	if result.Format == nil {
		return Descriptor{}, services.Wrapf(services.ErrProbe, "mediainfo", "no format section reported for %s", path)
	}

	var video *ffprobe.Stream
	var audioStreams, subtitleStreams []ffprobe.Stream
	for i := range result.Streams {
		stream := result.Streams[i]
		switch strings.ToLower(stream.CodecType) {
		case "video":
			if video == nil {
				video = &result.Streams[i]
			}
		case "audio":
			audioStreams = append(audioStreams, stream)
		case "subtitle":
			subtitleStreams = append(subtitleStreams, stream)
		}
	}
	if video == nil {
		return Descriptor{}, services.Wrapf(services.ErrProbe, "mediainfo", "no video stream in %s", path)
	}

	// The sample offsets are fractions of the duration; a missing or
	// unparseable value would poison every window downstream.
	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration <= 0 {
		return Descriptor{}, services.Wrapf(services.ErrProbe, "mediainfo", "no usable duration for %s", path)
	}

	desc := Descriptor{
		Path:        path,
		Height:      video.Height,
		FrameRate:   video.AvgFrameRate,
		Duration:    duration,
		BitRate:     result.BitRate(),
		DolbyVision: isDolbyVision(*video),
	}

	for i, stream := range audioStreams {
		desc.Audio = append(desc.Audio, AudioTrack{
			Index:    i + 1,
			Language: language.Normalize(stream.Language()),
			Channels: stream.Channels,
		})
	}
	for i, stream := range subtitleStreams {
		desc.Subtitles = append(desc.Subtitles, SubtitleTrack{
			Index:    i + 1,
			Language: language.Normalize(stream.Language()),
			Forced:   stream.Disposition.Forced == 1,
			Codec:    stream.CodecName,
		})
	}

	return desc, nil
}

func isDolbyVision(video ffprobe.Stream) bool {
	if len(video.SideDataList) == 0 {
		return false
	}
	return video.SideDataList[0].Type == doviSideDataType
}
