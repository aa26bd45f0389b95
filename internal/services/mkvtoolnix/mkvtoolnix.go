// Package mkvtoolnix wraps the MKVToolNix binaries used after the final
// encode: mkvextract for elementary streams, mkvmerge for remuxing, and
// mkvpropedit for container property edits.
package mkvtoolnix

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) error
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func resolveExecutor(exec Executor) Executor {
	if exec != nil {
		return exec
	}
	return commandExecutor{}
}
