package handbrake

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"videoencode/internal/services"
)

// Fixed video profile: highest-quality 10-bit HEVC with all deinterlacing
// detection disabled. Rate control comes solely from the quality value.
const (
	videoEncoder  = "vt_h265_10bit"
	encoderPreset = "quality"
	encoderProf   = "auto"
	encoderLevel  = "auto"
)

// Preview-frame counts for crop detection. Auto-crop needs a wide preview
// sweep to find stable black bars; with crop disabled a single preview frame
// is enough.
const (
	previewsNoCrop   = "1:0"
	previewsAutoCrop = "60:0"
	cropThreshold    = "3"
)

// AudioProfile describes the audio encoding half of a request.
type AudioProfile struct {
	Encoder string
	// Bitrate in kbps.
	Bitrate int
	// Mixdown is the channel layout ("stereo", "5point1"); empty keeps the
	// source layout.
	Mixdown string
	// SampleRate "auto" leaves the source rate untouched.
	SampleRate string
}

// Window selects a sample-mode time slice of the source.
type Window struct {
	// StartSeconds is the offset into the source.
	StartSeconds float64
	// StopSeconds caps the encoded length.
	StopSeconds int
}

// Options is the caller-assembled encode configuration. The zero value is
// incomplete on purpose: Validate turns a fully populated Options into an
// executable Request and rejects anything less.
type Options struct {
	Input string
	// Output defaults to the base name of Input, landing the encode in the
	// working directory.
	Output  string
	Quality int
	Audio   AudioProfile
	// AutoCrop switches from explicit zero margins to threshold-frame
	// detection and widens the preview sweep accordingly.
	AutoCrop bool
	// BurnSubtitle is the transcoder-local subtitle track to composite into
	// the picture; zero means no burn-in.
	BurnSubtitle int
	// Sample, when non-nil, encodes only the given time window.
	Sample *Window
}

// Request is a validated encode configuration.
type Request struct {
	input        string
	output       string
	quality      int
	audio        AudioProfile
	autoCrop     bool
	burnSubtitle int
	sample       *Window
}

// Validate checks that all mandatory fields are set and returns the
// executable request. Missing input, quality, or audio profile is a
// configuration error, raised before any external tool is touched.
func (o Options) Validate() (Request, error) {
	if strings.TrimSpace(o.Input) == "" {
		return Request{}, services.Wrapf(services.ErrConfiguration, "encode request", "input not set")
	}
	if o.Quality <= 0 {
		return Request{}, services.Wrapf(services.ErrConfiguration, "encode request", "quality not set")
	}
	if strings.TrimSpace(o.Audio.Encoder) == "" || o.Audio.Bitrate <= 0 {
		return Request{}, services.Wrapf(services.ErrConfiguration, "encode request", "audio profile not set")
	}
	if o.BurnSubtitle < 0 {
		return Request{}, services.Wrapf(services.ErrConfiguration, "encode request", "burn subtitle track %d invalid", o.BurnSubtitle)
	}
	if o.Sample != nil && (o.Sample.StartSeconds < 0 || o.Sample.StopSeconds <= 0) {
		return Request{}, services.Wrapf(services.ErrConfiguration, "encode request", "invalid sample window %+v", *o.Sample)
	}

	output := strings.TrimSpace(o.Output)
	if output == "" {
		output = filepath.Base(o.Input)
	}
	audio := o.Audio
	if strings.TrimSpace(audio.SampleRate) == "" {
		audio.SampleRate = "auto"
	}

	return Request{
		input:        o.Input,
		output:       output,
		quality:      o.Quality,
		audio:        audio,
		autoCrop:     o.AutoCrop,
		burnSubtitle: o.BurnSubtitle,
		sample:       o.Sample,
	}, nil
}

// Output returns the destination path the encode will write.
func (r Request) Output() string {
	return r.output
}

// Sample reports whether the request encodes a sample window rather than the
// full source.
func (r Request) IsSample() bool {
	return r.sample != nil
}

// Args renders the full transcoder argument list.
func (r Request) Args() []string {
	args := []string{
		"--input", r.input,
		"--output", r.output,
	}

	if r.sample != nil {
		args = append(args,
			"--start-at", fmt.Sprintf("seconds:%.3f", r.sample.StartSeconds),
			"--stop-at", "seconds:"+strconv.Itoa(r.sample.StopSeconds),
		)
	}

	if r.autoCrop {
		args = append(args,
			"--previews", previewsAutoCrop,
			"--crop-threshold-frames", cropThreshold,
		)
	} else {
		args = append(args,
			"--previews", previewsNoCrop,
			"--crop", "0:0:0:0",
		)
	}

	if r.sample == nil {
		args = append(args, "--markers")
	}

	args = append(args,
		"--encoder", videoEncoder,
		"--encoder-preset", encoderPreset,
		"--encoder-profile", encoderProf,
		"--encoder-level", encoderLevel,
		"--no-comb-detect",
		"--no-decomb",
		"--quality", strconv.Itoa(r.quality),
		"--aencoder", r.audio.Encoder,
		"--ab", strconv.Itoa(r.audio.Bitrate),
	)
	if r.audio.Mixdown != "" {
		args = append(args, "--mixdown", r.audio.Mixdown)
	}
	args = append(args, "--arate", r.audio.SampleRate)

	if r.burnSubtitle > 0 {
		args = append(args,
			"--subtitle", strconv.Itoa(r.burnSubtitle),
			"--subtitle-burned",
		)
	}

	return args
}
