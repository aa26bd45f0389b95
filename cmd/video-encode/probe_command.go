package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"videoencode/internal/language"
	"videoencode/internal/mediainfo"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "probe FILE",
		Short: "Inspect a source file's tracks and metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			desc, err := mediainfo.Probe(cmd.Context(), cfg.Tools.FFprobe, args[0])
			if err != nil {
				return err
			}
			printDescriptor(cmd, desc)
			return nil
		},
	}
}

func printDescriptor(cmd *cobra.Command, desc mediainfo.Descriptor) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "File:          %s\n", desc.Path)
	fmt.Fprintf(out, "Height:        %d\n", desc.Height)
	fmt.Fprintf(out, "Frame rate:    %s\n", desc.FrameRate)
	fmt.Fprintf(out, "Duration:      %s\n", formatDuration(desc.Duration))
	fmt.Fprintf(out, "Bitrate:       %s\n", formatKbps(desc.BitRate))
	fmt.Fprintf(out, "Dolby Vision:  %v\n", desc.DolbyVision)

	if len(desc.Audio) > 0 {
		rows := make([][]string, 0, len(desc.Audio))
		for _, track := range desc.Audio {
			rows = append(rows, []string{
				strconv.Itoa(track.Index),
				language.DisplayName(track.Language),
				strconv.Itoa(track.Channels),
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(out,
			[]string{"Audio", "Language", "Channels"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight}))
	}

	if len(desc.Subtitles) > 0 {
		rows := make([][]string, 0, len(desc.Subtitles))
		for _, track := range desc.Subtitles {
			forced := ""
			if track.Forced {
				forced = "forced"
			}
			rows = append(rows, []string{
				strconv.Itoa(track.Index),
				language.DisplayName(track.Language),
				track.Codec,
				forced,
			})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable(out,
			[]string{"Subtitle", "Language", "Codec", "Flags"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft}))
	}
}

func formatDuration(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) {
		return "unknown"
	}
	total := int(seconds)
	parts := []string{}
	if h := total / 3600; h > 0 {
		parts = append(parts, fmt.Sprintf("%dh", h))
	}
	if m := (total % 3600) / 60; m > 0 {
		parts = append(parts, fmt.Sprintf("%dm", m))
	}
	parts = append(parts, fmt.Sprintf("%ds", total%60))
	return strings.Join(parts, "")
}

func formatKbps(bitsPerSecond float64) string {
	if bitsPerSecond <= 0 || math.IsNaN(bitsPerSecond) {
		return "unknown"
	}
	return fmt.Sprintf("%.0f kbps", bitsPerSecond/1000)
}
