// Package dovitool wraps dovi_tool for Dolby Vision RPU extraction and
// injection.
package dovitool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"videoencode/internal/services"
)

// Executor abstracts command execution for testability. stdin may be nil.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdin io.Reader) error
}

// Client wraps dovi_tool invocations.
type Client struct {
	binary string
	exec   Executor
}

// New constructs a dovi_tool client. A nil executor selects the real
// subprocess implementation.
func New(binary string, executor Executor) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("dovi_tool binary required")
	}
	if executor == nil {
		executor = commandExecutor{}
	}
	return &Client{binary: binary, exec: executor}, nil
}

// ExtractRPU reads an Annex-B HEVC byte stream from stream and writes the raw
// RPU sidecar to rpuPath. Mode 2 converts profile 7 RPUs to the 8.1 form the
// re-encoded stream needs; --crop drops letterbox signaling.
func (c *Client) ExtractRPU(ctx context.Context, stream io.Reader, rpuPath string) error {
	if stream == nil {
		return services.Wrapf(services.ErrConfiguration, "dovi_tool", "no input stream for RPU extraction")
	}
	args := []string{"-m", "2", "--crop", "extract-rpu", "-", "-o", rpuPath}
	if err := c.exec.Run(ctx, c.binary, args, stream); err != nil {
		return services.Wrap(services.ErrExternalTool, "dovi_tool", "extract RPU to "+rpuPath, err)
	}
	return nil
}

// InjectRPU combines the encoded elementary stream with the extracted RPU,
// producing a new elementary stream at videoOut.
func (c *Client) InjectRPU(ctx context.Context, videoIn, rpuPath, videoOut string) error {
	args := []string{"inject-rpu", "-i", videoIn, "--rpu-in", rpuPath, "-o", videoOut}
	if err := c.exec.Run(ctx, c.binary, args, nil); err != nil {
		return services.Wrap(services.ErrExternalTool, "dovi_tool", "inject RPU into "+videoOut, err)
	}
	return nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdin io.Reader) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdin = stdin
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
