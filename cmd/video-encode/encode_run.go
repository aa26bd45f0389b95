package main

import (
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"videoencode/internal/config"
	"videoencode/internal/deps"
	"videoencode/internal/encode"
	"videoencode/internal/history"
	"videoencode/internal/logging"
	"videoencode/internal/policy"
)

type encodeFlags struct {
	targetKbps   float64
	quality      int
	burnSubtitle string
	autoCrop     bool
}

func runEncode(cmd *cobra.Command, cmdCtx *commandContext, input string, flags *encodeFlags) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}

	burn, err := policy.ParseBurnChoice(flags.burnSubtitle)
	if err != nil {
		return err
	}

	// The run log lands next to the output, named after it.
	logPath := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".log"
	logger, closer, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	statuses := deps.CheckBinaries(deps.Requirements(cfg.Tools))
	if missing := deps.Missing(statuses); len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s (run `video-encode deps`)", strings.Join(missing, ", "))
	}

	// One run per working directory: the output and log land here.
	lock := flock.New(".video-encode.lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return errors.New("another video-encode run is active in this directory")
	}
	defer func() { _ = lock.Unlock() }()

	var recorder encode.Recorder
	if cfg.History.Enabled {
		historyPath, err := config.ExpandPath(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("resolve history path: %w", err)
		}
		store, err := history.Open(historyPath)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer store.Close()
		recorder = store
	}

	pipeline, err := encode.NewFromConfig(cfg, recorder, logger)
	if err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := pipeline.Run(signalCtx, encode.Request{
		Input:      input,
		TargetKbps: flags.targetKbps,
		Quality:    flags.quality,
		Burn:       burn,
		AutoCrop:   flags.autoCrop,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Encoded %s at quality %d\n", result.Output, result.Quality)
	if result.Searched {
		fmt.Fprintf(out, "Predicted bitrate %.0f kbps for target %.0f kbps\n", result.PredictedKbps, result.TargetKbps)
	}
	if result.DolbyVision {
		fmt.Fprintln(out, "Dolby Vision and HDR metadata restored")
	}
	return nil
}
