// Package encode orchestrates a full re-encode run: probe, quality
// selection, the main transcode, and post-encode metadata restoration.
package encode

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"videoencode/internal/config"
	"videoencode/internal/cqsearch"
	"videoencode/internal/history"
	"videoencode/internal/mediainfo"
	"videoencode/internal/policy"
	"videoencode/internal/reinject"
	"videoencode/internal/services"
	"videoencode/internal/services/dovitool"
	"videoencode/internal/services/handbrake"
	"videoencode/internal/services/mkvtoolnix"
)

// Default bitrate targets in kbps, chosen by source resolution when the
// caller does not set one.
const (
	defaultTargetHD  = 4000
	defaultTargetUHD = 12000
)

// maxQuality is the top of the transcoder's constant-quality scale.
const maxQuality = 100

// MediaProber inspects a source file.
type MediaProber interface {
	Probe(ctx context.Context, path string) (mediainfo.Descriptor, error)
}

// Transcoder runs a validated encode.
type Transcoder interface {
	Encode(ctx context.Context, req handbrake.Request) error
}

// QualitySearcher finds a quality value for a bitrate target.
type QualitySearcher interface {
	Search(ctx context.Context, desc mediainfo.Descriptor, audio handbrake.AudioProfile, targetKbps float64) (cqsearch.Result, error)
}

// PropertyEditor cleans up container metadata on the finished encode.
type PropertyEditor interface {
	DeleteAudioTrackName(ctx context.Context, file string) error
}

// MetadataApplier restores HDR and Dolby Vision metadata onto the encode.
type MetadataApplier interface {
	Apply(ctx context.Context, desc mediainfo.Descriptor, encodedPath string) error
}

// Recorder persists a completed run.
type Recorder interface {
	Add(ctx context.Context, record history.Record) (history.Record, error)
}

// Request describes one encode run.
type Request struct {
	// Input is the source file. Only Matroska sources are accepted.
	Input string
	// TargetKbps is the bitrate target for the quality search; zero picks a
	// resolution-dependent default.
	TargetKbps float64
	// Quality, when positive, skips the search and encodes at this value.
	Quality int
	// Burn selects the subtitle burn-in policy.
	Burn policy.BurnChoice
	// AutoCrop enables black-bar detection on the full encode.
	AutoCrop bool
}

// Result summarizes a completed run.
type Result struct {
	RunID         string
	Title         string
	Output        string
	Quality       int
	PredictedKbps float64
	TargetKbps    float64
	DolbyVision   bool
	Searched      bool
}

// Pipeline wires the run steps together.
type Pipeline struct {
	prober     MediaProber
	transcoder Transcoder
	searcher   QualitySearcher
	properties PropertyEditor
	metadata   MetadataApplier
	recorder   Recorder
	audio      config.Audio
	logger     *slog.Logger
}

// Dependencies collects the pipeline's collaborators. Recorder may be nil
// when history is disabled.
type Dependencies struct {
	Prober     MediaProber
	Transcoder Transcoder
	Searcher   QualitySearcher
	Properties PropertyEditor
	Metadata   MetadataApplier
	Recorder   Recorder
	Audio      config.Audio
	Logger     *slog.Logger
}

// New constructs a Pipeline from explicit collaborators.
func New(deps Dependencies) (*Pipeline, error) {
	if deps.Prober == nil || deps.Transcoder == nil || deps.Searcher == nil || deps.Properties == nil || deps.Metadata == nil {
		return nil, services.Wrapf(services.ErrConfiguration, "pipeline", "missing collaborator")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		prober:     deps.Prober,
		transcoder: deps.Transcoder,
		searcher:   deps.Searcher,
		properties: deps.Properties,
		metadata:   deps.Metadata,
		recorder:   deps.Recorder,
		audio:      deps.Audio,
		logger:     logger,
	}, nil
}

// configProber adapts mediainfo.Probe to the MediaProber interface.
type configProber struct {
	binary string
}

func (p configProber) Probe(ctx context.Context, path string) (mediainfo.Descriptor, error) {
	return mediainfo.Probe(ctx, p.binary, path)
}

// NewFromConfig builds a fully wired Pipeline around the configured external
// tools. The recorder is attached separately because its lifetime belongs to
// the caller.
func NewFromConfig(cfg *config.Config, recorder Recorder, logger *slog.Logger) (*Pipeline, error) {
	hb, err := handbrake.New(cfg.Tools.HandBrake, logger)
	if err != nil {
		return nil, err
	}
	extractor, err := mkvtoolnix.NewExtractor(cfg.Tools.MKVExtract, nil)
	if err != nil {
		return nil, err
	}
	remuxer, err := mkvtoolnix.NewRemuxer(cfg.Tools.MKVMerge, nil)
	if err != nil {
		return nil, err
	}
	propEditor, err := mkvtoolnix.NewPropEditor(cfg.Tools.MKVPropEdit, nil)
	if err != nil {
		return nil, err
	}
	dovi, err := dovitool.New(cfg.Tools.DoviTool, nil)
	if err != nil {
		return nil, err
	}

	reinjector := reinject.New(
		reinject.FFmpegStreamer{Binary: cfg.Tools.FFmpeg},
		reinject.FFprobeFrames{Binary: cfg.Tools.FFprobe},
		extractor,
		remuxer,
		propEditor,
		dovi,
		logger,
	)
	searcher := cqsearch.New(
		sampleEncoder{client: hb},
		bitrateProber{binary: cfg.Tools.FFprobe},
		logger,
		cqsearch.Options{
			Steps:          cfg.Search.Steps,
			SampleSeconds:  cfg.Search.SampleSeconds,
			CorrectionKbps: float64(cfg.Search.BitrateCorrection),
			SlackKbps:      float64(cfg.Search.BitrateSlack),
		},
	)

	return New(Dependencies{
		Prober:     configProber{binary: cfg.Tools.FFprobe},
		Transcoder: hb,
		Searcher:   searcher,
		Properties: propEditor,
		Metadata:   reinjector,
		Recorder:   recorder,
		Audio:      cfg.Audio,
		Logger:     logger,
	})
}

// Run executes one encode end to end. The output lands in the current
// working directory under the source's base name.
func (p *Pipeline) Run(ctx context.Context, req Request) (Result, error) {
	if !strings.EqualFold(filepath.Ext(req.Input), ".mkv") {
		return Result{}, services.Wrapf(services.ErrInput, "pipeline", "%s is not a Matroska file", req.Input)
	}
	if req.Quality < 0 || req.Quality > maxQuality {
		return Result{}, services.Wrapf(services.ErrConfiguration, "pipeline", "quality %d outside 1-%d", req.Quality, maxQuality)
	}

	output := filepath.Base(req.Input)
	if err := checkOutputCollision(req.Input, output); err != nil {
		return Result{}, err
	}

	desc, err := p.prober.Probe(ctx, req.Input)
	if err != nil {
		return Result{}, err
	}

	target := req.TargetKbps
	if target <= 0 {
		if desc.Height <= 1080 {
			target = defaultTargetHD
		} else {
			target = defaultTargetUHD
		}
	}

	audio := policy.AudioProfileFor(desc, p.audio)

	result := Result{
		RunID:       uuid.NewString(),
		Title:       DeriveTitle(req.Input),
		Output:      output,
		TargetKbps:  target,
		DolbyVision: desc.DolbyVision,
	}
	logger := p.logger.With("run_id", result.RunID)

	if req.Quality > 0 {
		result.Quality = req.Quality
		logger.Info("using fixed quality", "quality", req.Quality)
	} else {
		found, err := p.searcher.Search(ctx, desc, audio, target)
		if err != nil {
			return Result{}, err
		}
		result.Quality = found.Quality
		result.PredictedKbps = found.PredictedKbps
		result.Searched = true
	}

	burnTrack, burn := policy.ResolveBurnIn(req.Burn, desc)
	opts := handbrake.Options{
		Input:    req.Input,
		Output:   output,
		Quality:  result.Quality,
		Audio:    audio,
		AutoCrop: req.AutoCrop,
	}
	if burn {
		opts.BurnSubtitle = burnTrack
		logger.Info("burning subtitle track", "track", burnTrack)
	}
	encodeReq, err := opts.Validate()
	if err != nil {
		return Result{}, err
	}

	logger.Info("starting full encode",
		"source", req.Input,
		"output", output,
		"quality", result.Quality,
		"target_kbps", target)
	if err := p.transcoder.Encode(ctx, encodeReq); err != nil {
		return Result{}, err
	}

	if err := p.properties.DeleteAudioTrackName(ctx, output); err != nil {
		return Result{}, err
	}

	if policy.NeedsReinjection(desc) {
		logger.Info("restoring Dolby Vision and HDR metadata", "output", output)
		if err := p.metadata.Apply(ctx, desc, output); err != nil {
			return Result{}, err
		}
	}

	if p.recorder != nil {
		record := history.Record{
			RunID:         result.RunID,
			Title:         result.Title,
			SourcePath:    req.Input,
			OutputPath:    output,
			Quality:       result.Quality,
			PredictedKbps: result.PredictedKbps,
			TargetKbps:    target,
			DolbyVision:   desc.DolbyVision,
		}
		if _, err := p.recorder.Add(ctx, record); err != nil {
			// History is bookkeeping; a failed insert never fails the encode.
			logger.Warn("could not record encode history", "error", err)
		}
	}

	logger.Info("encode complete", "output", output, "quality", result.Quality)
	return result, nil
}

// checkOutputCollision refuses runs whose output would clobber the source or
// an existing file of the same name in the working directory.
func checkOutputCollision(input, output string) error {
	absIn, err := filepath.Abs(input)
	if err != nil {
		return services.Wrap(services.ErrInput, "pipeline", "resolve input path", err)
	}
	absOut, err := filepath.Abs(output)
	if err != nil {
		return services.Wrap(services.ErrInput, "pipeline", "resolve output path", err)
	}
	if absIn == absOut {
		return services.Wrapf(services.ErrInput, "pipeline", "output %s would overwrite the source; run from a different directory", absOut)
	}
	if _, statErr := os.Stat(absOut); statErr == nil {
		return services.Wrapf(services.ErrInput, "pipeline", "output %s already exists", absOut)
	}
	return nil
}
