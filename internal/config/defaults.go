package config

const (
	defaultFFprobeBinary     = "ffprobe"
	defaultFFmpegBinary      = "ffmpeg"
	defaultHandBrakeBinary   = "HandBrakeCLI"
	defaultMKVExtractBinary  = "mkvextract"
	defaultMKVMergeBinary    = "mkvmerge"
	defaultMKVPropEditBinary = "mkvpropedit"
	defaultDoviToolBinary    = "dovi_tool"

	defaultSearchSteps       = 5
	defaultSampleSeconds     = 20
	defaultBitrateCorrection = 2000
	defaultBitrateSlack      = 900

	defaultStereoEncoder   = "av_aac"
	defaultStereoBitrate   = 160
	defaultSurroundEncoder = "ac3"
	defaultSurroundBitrate = 448
	defaultSurroundMixdown = "5point1"

	defaultHistoryPath = "~/.local/share/video-encode/history.db"
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Tools: Tools{
			FFprobe:     defaultFFprobeBinary,
			FFmpeg:      defaultFFmpegBinary,
			HandBrake:   defaultHandBrakeBinary,
			MKVExtract:  defaultMKVExtractBinary,
			MKVMerge:    defaultMKVMergeBinary,
			MKVPropEdit: defaultMKVPropEditBinary,
			DoviTool:    defaultDoviToolBinary,
		},
		Search: Search{
			Steps:             defaultSearchSteps,
			SampleSeconds:     defaultSampleSeconds,
			BitrateCorrection: defaultBitrateCorrection,
			BitrateSlack:      defaultBitrateSlack,
		},
		Audio: Audio{
			StereoEncoder:   defaultStereoEncoder,
			StereoBitrate:   defaultStereoBitrate,
			SurroundEncoder: defaultSurroundEncoder,
			SurroundBitrate: defaultSurroundBitrate,
			SurroundMixdown: defaultSurroundMixdown,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
