package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)
	flags := &encodeFlags{}

	rootCmd := &cobra.Command{
		Use:   "video-encode FILE",
		Short: "Re-encode a Blu-ray or 4K rip to a target bitrate",
		Long: `video-encode runs an adaptive quality search against a Matroska rip,
encodes it at the discovered constant-quality value, and restores HDR and
Dolby Vision metadata that the transcoder drops.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			if flags.quality < 0 || flags.quality > 100 {
				return fmt.Errorf("--quality must be between 1 and 100, got %d", flags.quality)
			}
			return runEncode(cmd, ctx, args[0], flags)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.Flags().Float64VarP(&flags.targetKbps, "target", "t", 0, "Target bitrate in kbps (default 4000 for HD, 12000 above)")
	rootCmd.Flags().IntVarP(&flags.quality, "quality", "q", 0, "Fixed quality value 1-100, skipping the search")
	rootCmd.Flags().StringVarP(&flags.burnSubtitle, "burn-subtitle", "b", "auto", "Subtitle burn-in: auto, none, or a track number")
	rootCmd.Flags().BoolVar(&flags.autoCrop, "crop", false, "Detect and crop black bars")

	rootCmd.AddCommand(newProbeCommand(ctx))
	rootCmd.AddCommand(newDepsCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(&configFlag))

	return rootCmd
}
