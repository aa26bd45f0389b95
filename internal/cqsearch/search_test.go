package cqsearch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"videoencode/internal/mediainfo"
	"videoencode/internal/services/handbrake"
)

// fakeTranscoder writes real files so cleanup behavior is observable.
type fakeTranscoder struct {
	qualities []int
	windows   []handbrake.Window
	paths     []string
	err       error
}

func (f *fakeTranscoder) EncodeSample(_ context.Context, _, destPath string, quality int, window handbrake.Window, _ handbrake.AudioProfile) error {
	if f.err != nil {
		return f.err
	}
	f.qualities = append(f.qualities, quality)
	f.windows = append(f.windows, window)
	f.paths = append(f.paths, destPath)
	return os.WriteFile(destPath, []byte("sample"), 0o644)
}

// bitrateModel maps quality to a measured sample bitrate in bits/second.
type bitrateModel func(quality int) float64

type fakeProber struct {
	model bitrateModel
	last  int
	err   error
}

func (f *fakeProber) Bitrate(_ context.Context, path string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.model(f.last), nil
}

func newSearcher(t *testing.T, transcoder *fakeTranscoder, model bitrateModel) (*Searcher, *fakeProber) {
	t.Helper()
	prober := &fakeProber{model: model}
	// Track the quality of the most recent sample so the prober can answer
	// per-quality.
	wrapped := &qualityTrackingTranscoder{inner: transcoder, prober: prober}
	return New(wrapped, prober, nil, Options{}), prober
}

type qualityTrackingTranscoder struct {
	inner  *fakeTranscoder
	prober *fakeProber
}

func (q *qualityTrackingTranscoder) EncodeSample(ctx context.Context, source, destPath string, quality int, window handbrake.Window, audio handbrake.AudioProfile) error {
	q.prober.last = quality
	return q.inner.EncodeSample(ctx, source, destPath, quality, window, audio)
}

func uhdDescriptor() mediainfo.Descriptor {
	return mediainfo.Descriptor{Path: "movie.mkv", Height: 2160, Duration: 6000}
}

func hdDescriptor() mediainfo.Descriptor {
	return mediainfo.Descriptor{Path: "movie.mkv", Height: 1080, Duration: 6000}
}

// monotone yields higher bitrates at higher quality values, matching the
// transcoder's 1-100 quality scale. Measured bitrate = quality * 100_000 b/s,
// so corrected kbps = q*100 + 2000.
func monotone(quality int) float64 {
	return float64(quality) * 100_000
}

func TestBounds(t *testing.T) {
	if low, high := Bounds(1080); low != 25 || high != 75 {
		t.Fatalf("1080p bounds = [%d,%d]", low, high)
	}
	if low, high := Bounds(2160); low != 20 || high != 80 {
		t.Fatalf("2160p bounds = [%d,%d]", low, high)
	}
}

func TestSearchStaysWithinBounds(t *testing.T) {
	for _, tc := range []struct {
		desc      mediainfo.Descriptor
		low, high int
	}{
		{hdDescriptor(), 25, 75},
		{uhdDescriptor(), 20, 80},
	} {
		transcoder := &fakeTranscoder{}
		searcher, _ := newSearcher(t, transcoder, monotone)
		if _, err := searcher.Search(context.Background(), tc.desc, handbrake.AudioProfile{}, 4000); err != nil {
			t.Fatalf("Search: %v", err)
		}
		for _, quality := range transcoder.qualities {
			if quality < tc.low || quality > tc.high {
				t.Fatalf("height %d: evaluated quality %d outside [%d,%d]", tc.desc.Height, quality, tc.low, tc.high)
			}
		}
	}
}

func TestSearchAcceptsWithinBand(t *testing.T) {
	transcoder := &fakeTranscoder{}
	searcher, _ := newSearcher(t, transcoder, monotone)

	target := 4000.0
	result, err := searcher.Search(context.Background(), hdDescriptor(), handbrake.AudioProfile{}, target)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// The model's corrected prediction for the returned quality must land in
	// [target, target+900].
	predicted := float64(result.Quality)*100 + 2000
	if predicted < target || predicted > target+900 {
		t.Fatalf("returned quality %d predicts %.0f kbps, outside [%.0f,%.0f]", result.Quality, predicted, target, target+900)
	}
	if result.PredictedKbps != predicted {
		t.Fatalf("result prediction %.0f, want %.0f", result.PredictedKbps, predicted)
	}
}

func TestSearchSampleOffsetsEvenlySpaced(t *testing.T) {
	transcoder := &fakeTranscoder{}
	prober := &fakeProber{model: func(int) float64 { return 2_500_000 }}
	// Constant 4500 kbps corrected prediction: accept the first midpoint at
	// target 4000, so exactly one iteration of samples runs.
	searcher := New(&qualityTrackingTranscoder{inner: transcoder, prober: prober}, prober, nil, Options{})

	if _, err := searcher.Search(context.Background(), hdDescriptor(), handbrake.AudioProfile{}, 4000); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(transcoder.windows) != 5 {
		t.Fatalf("expected 5 samples, got %d", len(transcoder.windows))
	}
	duration := hdDescriptor().Duration
	for i, window := range transcoder.windows {
		want := duration * float64(i+1) / 6
		if window.StartSeconds != want {
			t.Fatalf("sample %d offset = %v, want %v", i+1, window.StartSeconds, want)
		}
		if window.StopSeconds != 20 {
			t.Fatalf("sample %d stop = %d, want 20", i+1, window.StopSeconds)
		}
	}
}

func TestSearchFallsBackToLastTriedQuality(t *testing.T) {
	transcoder := &fakeTranscoder{}
	// Always far above the band: every iteration moves high down, and the
	// bounds cross without acceptance.
	searcher, _ := newSearcher(t, transcoder, func(int) float64 { return 50_000_000 })

	result, err := searcher.Search(context.Background(), hdDescriptor(), handbrake.AudioProfile{}, 4000)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	last := transcoder.qualities[len(transcoder.qualities)-1]
	if result.Quality != last {
		t.Fatalf("expected last evaluated midpoint %d, got %d", last, result.Quality)
	}
	if result.Quality != 25 {
		t.Fatalf("always-too-high model should walk down to the low bound, got %d", result.Quality)
	}
}

func TestSearchCleansSamplesOnSuccess(t *testing.T) {
	transcoder := &fakeTranscoder{}
	searcher, _ := newSearcher(t, transcoder, monotone)
	if _, err := searcher.Search(context.Background(), hdDescriptor(), handbrake.AudioProfile{}, 4000); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(transcoder.paths) == 0 {
		t.Fatalf("expected sample paths to be recorded")
	}
	dir := filepath.Dir(transcoder.paths[0])
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("sample directory %s still exists after search", dir)
	}
}

func TestSearchCleansSamplesOnFailure(t *testing.T) {
	transcoder := &fakeTranscoder{}
	prober := &fakeProber{model: monotone}
	wrapped := &qualityTrackingTranscoder{inner: transcoder, prober: prober}
	searcher := New(wrapped, prober, nil, Options{})

	// First sample encodes fine, then probing fails.
	prober.err = errors.New("probe failed")
	if _, err := searcher.Search(context.Background(), hdDescriptor(), handbrake.AudioProfile{}, 4000); err == nil {
		t.Fatalf("expected search failure")
	}
	if len(transcoder.paths) > 0 {
		dir := filepath.Dir(transcoder.paths[0])
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Fatalf("sample directory %s still exists after failed search", dir)
		}
	}
}

func TestSearchRejectsInvalidTarget(t *testing.T) {
	searcher := New(&fakeTranscoder{}, &fakeProber{model: monotone}, nil, Options{})
	if _, err := searcher.Search(context.Background(), hdDescriptor(), handbrake.AudioProfile{}, 0); err == nil {
		t.Fatalf("expected error for zero target")
	}
}
