package handbrake

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"videoencode/internal/services"
)

type fakeExecutor struct {
	binary string
	args   []string
	quiet  bool
	err    error
}

func (f *fakeExecutor) Run(_ context.Context, binary string, args []string, quiet bool) error {
	f.binary = binary
	f.args = append([]string(nil), args...)
	f.quiet = quiet
	return f.err
}

func TestEncodeRunsSampleQuiet(t *testing.T) {
	fake := &fakeExecutor{}
	client, err := New("HandBrakeCLI", slog.New(slog.NewTextHandler(io.Discard, nil)), WithExecutor(fake))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	req, err := Options{
		Input:   "movie.mkv",
		Output:  "sample.mkv",
		Quality: 45,
		Audio:   AudioProfile{Encoder: "ac3", Bitrate: 448, Mixdown: "5point1"},
		Sample:  &Window{StartSeconds: 100, StopSeconds: 20},
	}.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if err := client.Encode(context.Background(), req); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if fake.binary != "HandBrakeCLI" {
		t.Fatalf("unexpected binary %q", fake.binary)
	}
	if !fake.quiet {
		t.Fatalf("sample encode must run quiet")
	}
	if !strings.Contains(strings.Join(fake.args, " "), "--start-at seconds:100.000") {
		t.Fatalf("sample window missing from args: %v", fake.args)
	}
}

func TestEncodeFullRunsLoud(t *testing.T) {
	fake := &fakeExecutor{}
	client, _ := New("HandBrakeCLI", nil, WithExecutor(fake))
	req, err := Options{Input: "movie.mkv", Quality: 45, Audio: AudioProfile{Encoder: "ac3", Bitrate: 448}}.Validate()
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if err := client.Encode(context.Background(), req); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if fake.quiet {
		t.Fatalf("full encode must not be quiet")
	}
}

func TestEncodeWrapsToolFailure(t *testing.T) {
	fake := &fakeExecutor{err: errors.New("exit status 1")}
	client, _ := New("HandBrakeCLI", nil, WithExecutor(fake))
	req, _ := Options{Input: "movie.mkv", Quality: 45, Audio: AudioProfile{Encoder: "ac3", Bitrate: 448}}.Validate()
	if err := client.Encode(context.Background(), req); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestNewRequiresBinary(t *testing.T) {
	if _, err := New("  ", nil); err == nil {
		t.Fatalf("expected error for empty binary")
	}
}
