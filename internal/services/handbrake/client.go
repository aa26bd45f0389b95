package handbrake

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"videoencode/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, quiet bool) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps HandBrakeCLI invocations.
type Client struct {
	binary string
	logger *slog.Logger
	exec   Executor
}

// New constructs a HandBrake client.
func New(binary string, logger *slog.Logger, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("handbrake binary required")
	}
	client := &Client{
		binary: binary,
		logger: logger,
		exec:   commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Encode runs the transcoder synchronously. Sample requests run quiet; full
// encodes log the complete command line first and inherit the tool's output.
func (c *Client) Encode(ctx context.Context, req Request) error {
	args := req.Args()
	quiet := req.IsSample()
	if !quiet && c.logger != nil {
		c.logger.Info("running transcoder", "command", c.binary+" "+strings.Join(args, " "))
	}
	if err := c.exec.Run(ctx, c.binary, args, quiet); err != nil {
		return services.Wrap(services.ErrExternalTool, "handbrake", "encode "+req.Output(), err)
	}
	return nil
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, quiet bool) error {
	cmd := exec.CommandContext(ctx, binary, args...)
	if !quiet {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}
