package reinject

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"videoencode/internal/media/ffprobe"
	"videoencode/internal/mediainfo"
	"videoencode/internal/services/mkvtoolnix"
)

type fakeStreamer struct {
	payload string
	waitErr error
}

func (f *fakeStreamer) StreamVideo(context.Context, string) (io.ReadCloser, func() error, error) {
	return io.NopCloser(strings.NewReader(f.payload)), func() error { return f.waitErr }, nil
}

// blockingStreamer produces an endless stream whose wait function returns
// only after the producer goroutine has exited, which in turn requires the
// consumer to close the read end.
type blockingStreamer struct{}

func (blockingStreamer) StreamVideo(context.Context, string) (io.ReadCloser, func() error, error) {
	pr, pw := io.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		chunk := make([]byte, 1024)
		for {
			if _, err := pw.Write(chunk); err != nil {
				return
			}
		}
	}()
	wait := func() error {
		<-done
		return nil
	}
	return pr, wait, nil
}

type fakeFrames struct {
	result ffprobe.FramesResult
	err    error
}

func (f *fakeFrames) InspectFrames(context.Context, string) (ffprobe.FramesResult, error) {
	return f.result, f.err
}

// fakeTools implements the extract/inject/remux/edit chain, creating the
// files each step is expected to leave behind so the real os.Rename and
// cleanup paths run.
type fakeTools struct {
	rpuInput   string
	extracted  []string
	injected   [][3]string
	remuxed    [][4]string
	properties []mkvtoolnix.Property
	remuxErr   error
}

func (f *fakeTools) ExtractRPU(_ context.Context, stream io.Reader, rpuPath string) error {
	data, _ := io.ReadAll(stream)
	f.rpuInput = string(data)
	return os.WriteFile(rpuPath, []byte("rpu"), 0o644)
}

func (f *fakeTools) InjectRPU(_ context.Context, videoIn, rpuPath, videoOut string) error {
	f.injected = append(f.injected, [3]string{videoIn, rpuPath, videoOut})
	return os.WriteFile(videoOut, []byte("injected"), 0o644)
}

func (f *fakeTools) ExtractVideoTrack(_ context.Context, container, destPath string) error {
	f.extracted = append(f.extracted, container, destPath)
	return os.WriteFile(destPath, []byte("hevc"), 0o644)
}

func (f *fakeTools) MergeVideoWithDonor(_ context.Context, videoStream, donor, frameRate, output string) error {
	f.remuxed = append(f.remuxed, [4]string{videoStream, donor, frameRate, output})
	if f.remuxErr != nil {
		return f.remuxErr
	}
	return os.WriteFile(output, []byte("final"), 0o644)
}

func (f *fakeTools) SetVideoProperties(_ context.Context, _ string, props []mkvtoolnix.Property) error {
	f.properties = append([]mkvtoolnix.Property(nil), props...)
	return nil
}

func hdrFrames() ffprobe.FramesResult {
	return ffprobe.FramesResult{Frames: []ffprobe.Frame{{
		SideDataList: []ffprobe.SideData{
			{Type: contentLightType, MaxContent: 1000, MaxAverage: 400},
			{
				Type:         masteringDisplayType,
				RedX:         "35400/50000",
				RedY:         "14600/50000",
				GreenX:       "8500/50000",
				GreenY:       "39850/50000",
				BlueX:        "6550/50000",
				BlueY:        "2300/50000",
				WhitePointX:  "15635/50000",
				WhitePointY:  "16450/50000",
				MaxLuminance: "10000000/10000",
				MinLuminance: "50/10000",
			},
		},
	}}}
}

func newReinjector(tools *fakeTools, streamer *fakeStreamer, frames *fakeFrames) *Reinjector {
	return New(streamer, frames, tools, tools, tools, tools, nil)
}

func TestApplyRunsFullDolbyVisionChain(t *testing.T) {
	dir := t.TempDir()
	encoded := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(encoded, []byte("encoded"), 0o644); err != nil {
		t.Fatalf("write encoded: %v", err)
	}

	tools := &fakeTools{}
	streamer := &fakeStreamer{payload: "annexb"}
	desc := mediainfo.Descriptor{Path: "/rips/movie.mkv", FrameRate: "24000/1001", DolbyVision: true}

	reinjector := newReinjector(tools, streamer, &fakeFrames{result: hdrFrames()})
	if err := reinjector.Apply(context.Background(), desc, encoded); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if tools.rpuInput != "annexb" {
		t.Fatalf("RPU extraction did not consume the annex-b stream: %q", tools.rpuInput)
	}
	if len(tools.remuxed) != 1 {
		t.Fatalf("expected one remux, got %d", len(tools.remuxed))
	}
	remux := tools.remuxed[0]
	if remux[1] != encoded+".old" {
		t.Fatalf("donor should be the set-aside container, got %q", remux[1])
	}
	if remux[2] != "24000/1001" {
		t.Fatalf("frame rate must be passed through verbatim, got %q", remux[2])
	}
	if remux[3] != encoded {
		t.Fatalf("remux output should replace the encoded file, got %q", remux[3])
	}

	// Intermediates and the .old copy are gone on success.
	for _, name := range []string{"RPU.bin", "video.hevc", "inj.hevc", "movie.mkv.old"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Fatalf("intermediate %s should be removed", name)
		}
	}
	if _, err := os.Stat(encoded); err != nil {
		t.Fatalf("final output missing: %v", err)
	}
}

// partialRPUTool reads a little of the stream and then fails, the way
// dovi_tool does when it rejects its input mid-stream.
type partialRPUTool struct {
	*fakeTools
	extractErr error
}

func (p *partialRPUTool) ExtractRPU(_ context.Context, stream io.Reader, _ string) error {
	_, _ = io.ReadFull(stream, make([]byte, 1024))
	return p.extractErr
}

func TestApplyReturnsWhenExtractionFailsMidStream(t *testing.T) {
	dir := t.TempDir()
	encoded := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(encoded, []byte("encoded"), 0o644); err != nil {
		t.Fatalf("write encoded: %v", err)
	}

	tools := &fakeTools{}
	rpu := &partialRPUTool{fakeTools: tools, extractErr: errors.New("invalid stream")}
	reinjector := New(blockingStreamer{}, &fakeFrames{result: hdrFrames()}, tools, tools, tools, rpu, nil)
	desc := mediainfo.Descriptor{Path: "src.mkv", FrameRate: "24/1", DolbyVision: true}

	errs := make(chan error, 1)
	go func() {
		errs <- reinjector.Apply(context.Background(), desc, encoded)
	}()

	select {
	case err := <-errs:
		if !errors.Is(err, rpu.extractErr) {
			t.Fatalf("expected extraction error, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Apply did not return after mid-stream extraction failure")
	}
	if len(tools.extracted) != 0 {
		t.Fatal("extraction failure must stop the chain before the video track extract")
	}
}

func TestApplyLeavesOldFileWhenRemuxFails(t *testing.T) {
	dir := t.TempDir()
	encoded := filepath.Join(dir, "movie.mkv")
	if err := os.WriteFile(encoded, []byte("encoded"), 0o644); err != nil {
		t.Fatalf("write encoded: %v", err)
	}

	tools := &fakeTools{remuxErr: errors.New("mux failed")}
	reinjector := newReinjector(tools, &fakeStreamer{payload: "x"}, &fakeFrames{result: hdrFrames()})
	desc := mediainfo.Descriptor{Path: "src.mkv", FrameRate: "24/1", DolbyVision: true}

	if err := reinjector.Apply(context.Background(), desc, encoded); err == nil {
		t.Fatalf("expected remux failure to propagate")
	}
	// The safety-net rename survives for manual recovery.
	if _, err := os.Stat(encoded + ".old"); err != nil {
		t.Fatalf(".old file should remain after remux failure: %v", err)
	}
}

func TestHDRPropertiesConvertRationalsLate(t *testing.T) {
	frames := hdrFrames()
	mastering := frames.Frames[0].SideDataList[1]
	contentLight := frames.Frames[0].SideDataList[0]

	props, err := hdrProperties(mastering, contentLight)
	if err != nil {
		t.Fatalf("hdrProperties: %v", err)
	}

	byName := map[string]string{}
	for _, prop := range props {
		byName[prop.Name] = prop.Value
	}
	if byName["max-content-light"] != "1000" || byName["max-frame-light"] != "400" {
		t.Fatalf("unexpected content light props: %v", byName)
	}
	if byName["chromaticity-coordinates-red-x"] != "0.708" {
		t.Fatalf("red-x = %q, want 0.708", byName["chromaticity-coordinates-red-x"])
	}
	if byName["max-luminance"] != "1000" || byName["min-luminance"] != "0.005" {
		t.Fatalf("unexpected luminance props: %v", byName)
	}
}

func TestHDRInjectionSkipsWhenRecordsMissing(t *testing.T) {
	dir := t.TempDir()
	encoded := filepath.Join(dir, "movie.mkv")
	os.WriteFile(encoded, []byte("encoded"), 0o644)

	// DV-only source: no mastering display record.
	frames := ffprobe.FramesResult{Frames: []ffprobe.Frame{{
		SideDataList: []ffprobe.SideData{{Type: contentLightType, MaxContent: 1000}},
	}}}
	tools := &fakeTools{}
	reinjector := newReinjector(tools, &fakeStreamer{payload: "x"}, &fakeFrames{result: frames})
	desc := mediainfo.Descriptor{Path: "src.mkv", FrameRate: "24/1", DolbyVision: true}

	if err := reinjector.Apply(context.Background(), desc, encoded); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if tools.properties != nil {
		t.Fatalf("property edit must not run without both records: %v", tools.properties)
	}
}

func TestParseRationalRoundTrip(t *testing.T) {
	values := []string{"35400/50000", "50/10000", "10000000/10000", "0.3127", "1"}
	for _, value := range values {
		parsed, err := parseRational(value)
		if err != nil {
			t.Fatalf("parseRational(%q): %v", value, err)
		}
		formatted := formatFloat(parsed)
		back, err := strconv.ParseFloat(formatted, 64)
		if err != nil {
			t.Fatalf("re-parse %q: %v", formatted, err)
		}
		if back != parsed {
			t.Fatalf("round trip of %q lost precision: %v vs %v", value, parsed, back)
		}
	}
}

func TestParseRationalRejectsBadInput(t *testing.T) {
	for _, value := range []string{"", "a/b", "1/0", "x"} {
		if _, err := parseRational(value); err == nil {
			t.Fatalf("expected error for %q", value)
		}
	}
}
