// Package policy holds the pure decision functions driven by a probed media
// descriptor: subtitle burn-in selection, audio profile selection, and the
// metadata reinjection trigger.
package policy

import (
	"strconv"
	"strings"

	"videoencode/internal/config"
	"videoencode/internal/language"
	"videoencode/internal/mediainfo"
	"videoencode/internal/services"
	"videoencode/internal/services/handbrake"
)

// BurnMode is the caller's burn-in directive.
type BurnMode int

const (
	// BurnAuto lets the track policy decide.
	BurnAuto BurnMode = iota
	// BurnNone disables burn-in unconditionally.
	BurnNone
	// BurnTrack forces a specific transcoder-local subtitle track.
	BurnTrack
)

// BurnChoice is a parsed --burn-subtitle value.
type BurnChoice struct {
	Mode  BurnMode
	Track int
}

// ParseBurnChoice accepts the literals "auto" and "none" or a non-negative
// integer track index. Anything else is a configuration error, raised before
// any processing begins.
func ParseBurnChoice(value string) (BurnChoice, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto":
		return BurnChoice{Mode: BurnAuto}, nil
	case "none":
		return BurnChoice{Mode: BurnNone}, nil
	}
	track, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || track < 0 {
		return BurnChoice{}, services.Wrapf(services.ErrConfiguration, "burn-subtitle", "invalid value %q (want auto, none, or a track number)", value)
	}
	return BurnChoice{Mode: BurnTrack, Track: track}, nil
}

// SelectSubtitle picks the subtitle track to burn in. Forced tracks win in
// index order; otherwise a non-English primary audio track falls back to the
// first English subtitle. A source that matches neither rule gets no burn-in.
// Pure function of the descriptor's track data.
func SelectSubtitle(desc mediainfo.Descriptor) (int, bool) {
	for _, track := range desc.Subtitles {
		if track.Forced {
			return track.Index, true
		}
	}

	primaryLang := ""
	if primary, ok := desc.PrimaryAudio(); ok {
		primaryLang = primary.Language
	}
	if !language.IsEnglish(primaryLang) {
		for _, track := range desc.Subtitles {
			if language.IsEnglish(track.Language) {
				return track.Index, true
			}
		}
	}

	return 0, false
}

// ResolveBurnIn applies the override rules on top of the automatic policy: an
// explicit track always wins, "none" always disables, and Dolby Vision
// sources never enter the automatic search since burning a subtitle into a
// DV-tagged stream is not handled.
func ResolveBurnIn(choice BurnChoice, desc mediainfo.Descriptor) (int, bool) {
	switch choice.Mode {
	case BurnTrack:
		return choice.Track, choice.Track > 0
	case BurnNone:
		return 0, false
	}
	if desc.DolbyVision {
		return 0, false
	}
	return SelectSubtitle(desc)
}

// AudioProfileFor maps the primary audio track's channel count onto one of
// the two configured profiles. Two channels or fewer selects the stereo
// profile; everything else gets the surround mixdown. There is no third
// option.
func AudioProfileFor(desc mediainfo.Descriptor, audio config.Audio) handbrake.AudioProfile {
	channels := 0
	if primary, ok := desc.PrimaryAudio(); ok {
		channels = primary.Channels
	}
	if channels <= 2 {
		return handbrake.AudioProfile{
			Encoder:    audio.StereoEncoder,
			Bitrate:    audio.StereoBitrate,
			SampleRate: "auto",
		}
	}
	return handbrake.AudioProfile{
		Encoder:    audio.SurroundEncoder,
		Bitrate:    audio.SurroundBitrate,
		Mixdown:    audio.SurroundMixdown,
		SampleRate: "auto",
	}
}

// NeedsReinjection reports whether the post-encode metadata pipeline must
// run. Triggered solely by the source's Dolby Vision flag; HDR static
// metadata injection is attempted whenever the flag is set and quietly
// no-ops when the source carries none.
func NeedsReinjection(desc mediainfo.Descriptor) bool {
	return desc.DolbyVision
}
