package encode

import (
	"context"
	"math"

	"videoencode/internal/media/ffprobe"
	"videoencode/internal/services"
	"videoencode/internal/services/handbrake"
)

// sampleEncoder adapts the HandBrake client to the quality search's sample
// transcoder interface.
type sampleEncoder struct {
	client *handbrake.Client
}

func (s sampleEncoder) EncodeSample(ctx context.Context, source, destPath string, quality int, window handbrake.Window, audio handbrake.AudioProfile) error {
	req, err := handbrake.Options{
		Input:   source,
		Output:  destPath,
		Quality: quality,
		Audio:   audio,
		Sample:  &window,
	}.Validate()
	if err != nil {
		return err
	}
	return s.client.Encode(ctx, req)
}

// bitrateProber measures a finished sample's container bitrate.
type bitrateProber struct {
	binary string
}

func (b bitrateProber) Bitrate(ctx context.Context, path string) (float64, error) {
	result, err := ffprobe.Inspect(ctx, b.binary, path)
	if err != nil {
		return 0, err
	}
	bitrate := result.BitRate()
	if math.IsNaN(bitrate) {
		return 0, services.Wrapf(services.ErrProbe, "sample probe", "no bitrate reported for %s", path)
	}
	return bitrate, nil
}
