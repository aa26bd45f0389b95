// Package cqsearch finds the constant-quality value whose predicted
// full-length bitrate lands inside a target band, by binary search over
// sampled partial encodes. This is the most expensive routine in the
// pipeline: every iteration transcodes several short clips of real source
// material.
package cqsearch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"videoencode/internal/mediainfo"
	"videoencode/internal/services"
	"videoencode/internal/services/handbrake"
)

// Transcoder produces one sample clip. Implemented by the HandBrake client
// behind a request adapter; faked in tests.
type Transcoder interface {
	EncodeSample(ctx context.Context, source, destPath string, quality int, window handbrake.Window, audio handbrake.AudioProfile) error
}

// Prober measures a finished sample's container bitrate in bits per second.
type Prober interface {
	Bitrate(ctx context.Context, path string) (float64, error)
}

// Options tunes the search. Zero values fall back to the documented defaults.
type Options struct {
	// Steps is the number of sample clips per candidate quality.
	Steps int
	// SampleSeconds caps each clip's length.
	SampleSeconds int
	// CorrectionKbps is added to every sample's measured bitrate to offset
	// the short-sample measurement bias relative to full-length encodes.
	CorrectionKbps float64
	// SlackKbps widens the acceptance band above the target.
	SlackKbps float64
}

const (
	defaultSteps          = 5
	defaultSampleSeconds  = 20
	defaultCorrectionKbps = 2000
	defaultSlackKbps      = 900
)

func (o Options) withDefaults() Options {
	if o.Steps <= 0 {
		o.Steps = defaultSteps
	}
	if o.SampleSeconds <= 0 {
		o.SampleSeconds = defaultSampleSeconds
	}
	if o.CorrectionKbps == 0 {
		o.CorrectionKbps = defaultCorrectionKbps
	}
	if o.SlackKbps == 0 {
		o.SlackKbps = defaultSlackKbps
	}
	return o
}

// Bounds returns the inclusive quality range searched for a source of the
// given height. Higher-resolution sources get the wider, lower-reaching range.
func Bounds(height int) (low, high int) {
	if height <= 1080 {
		return 25, 75
	}
	return 20, 80
}

// Searcher runs the quality search.
type Searcher struct {
	transcoder Transcoder
	prober     Prober
	logger     *slog.Logger
	opts       Options
}

// New constructs a Searcher.
func New(transcoder Transcoder, prober Prober, logger *slog.Logger, opts Options) *Searcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Searcher{
		transcoder: transcoder,
		prober:     prober,
		logger:     logger,
		opts:       opts.withDefaults(),
	}
}

// Result is the outcome of a search.
type Result struct {
	Quality int
	// PredictedKbps is the corrected bitrate prediction for Quality. On the
	// crossed-bounds fallback it reflects the last evaluation.
	PredictedKbps float64
}

// Search converges on a quality value whose predicted bitrate falls within
// [target, target+slack] kbps. When the bounds cross without an exact band
// match the last evaluated midpoint is returned; the search degrades to
// "best tried" rather than failing. Sample clips live in a scoped temporary
// directory that is removed on every exit path.
func (s *Searcher) Search(ctx context.Context, desc mediainfo.Descriptor, audio handbrake.AudioProfile, targetKbps float64) (Result, error) {
	if targetKbps <= 0 {
		return Result{}, services.Wrapf(services.ErrConfiguration, "cq-search", "target bitrate %.0f invalid", targetKbps)
	}

	tempDir, err := os.MkdirTemp("", "video-encode-samples-")
	if err != nil {
		return Result{}, fmt.Errorf("create sample directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	low, high := Bounds(desc.Height)
	s.logger.Info("starting quality search",
		"source", desc.Path,
		"target_kbps", targetKbps,
		"low", low,
		"high", high,
		"steps", s.opts.Steps)

	last := Result{}
	for low <= high {
		quality := (low + high) / 2
		s.logger.Info("trying quality", "quality", quality)

		predicted, err := s.predictBitrate(ctx, desc, audio, quality, tempDir)
		if err != nil {
			return Result{}, err
		}
		s.logger.Info("predicted bitrate", "quality", quality, "predicted_kbps", predicted)
		last = Result{Quality: quality, PredictedKbps: predicted}

		switch {
		case predicted > targetKbps+s.opts.SlackKbps:
			// Too little compression at this quality.
			high = quality - 1
		case predicted < targetKbps:
			// Over-compressed.
			low = quality + 1
		default:
			s.logger.Info("quality accepted", "quality", quality, "predicted_kbps", predicted)
			return last, nil
		}
	}

	s.logger.Info("bounds crossed, returning last tried quality", "quality", last.Quality)
	return last, nil
}

// predictBitrate encodes the per-step sample clips at evenly spaced offsets
// and returns the mean of their bias-corrected bitrates in kbps.
func (s *Searcher) predictBitrate(ctx context.Context, desc mediainfo.Descriptor, audio handbrake.AudioProfile, quality int, tempDir string) (float64, error) {
	sum := 0.0
	for i := 1; i <= s.opts.Steps; i++ {
		offset := desc.Duration * float64(i) / float64(s.opts.Steps+1)
		samplePath := filepath.Join(tempDir, fmt.Sprintf("sample_q%d_%d.mkv", quality, i))

		window := handbrake.Window{StartSeconds: offset, StopSeconds: s.opts.SampleSeconds}
		if err := s.transcoder.EncodeSample(ctx, desc.Path, samplePath, quality, window, audio); err != nil {
			return 0, err
		}

		bitrate, err := s.prober.Bitrate(ctx, samplePath)
		if err != nil {
			return 0, err
		}
		sum += bitrate/1000 + s.opts.CorrectionKbps
	}
	return sum / float64(s.opts.Steps), nil
}
