package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers used to classify fatal conditions. Every error surfaced to
// the CLI wraps exactly one of these.
var (
	// ErrInput covers bad user input: missing file, wrong extension, output
	// collision.
	ErrInput = errors.New("input error")
	// ErrDependency indicates a required external binary is absent.
	ErrDependency = errors.New("missing dependency")
	// ErrProbe indicates ffprobe produced no usable metadata for a file.
	ErrProbe = errors.New("probe error")
	// ErrConfiguration covers invalid option combinations and encode requests
	// executed before their mandatory fields are set.
	ErrConfiguration = errors.New("configuration error")
	// ErrExternalTool indicates a shelled-out process failed after passing
	// the preflight check. Never retried.
	ErrExternalTool = errors.New("external tool error")
)

// Wrap builds an error that carries component and operation context while
// tagging it with the provided marker for later classification.
func Wrap(marker error, component, operation string, err error) error {
	detail := buildDetail(component, operation)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Wrapf is Wrap with a formatted operation message and no underlying error.
func Wrapf(marker error, component, format string, args ...any) error {
	return Wrap(marker, component, fmt.Sprintf(format, args...), nil)
}

func buildDetail(component, operation string) string {
	parts := make([]string, 0, 2)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
