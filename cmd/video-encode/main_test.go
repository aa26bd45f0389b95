package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootShowsHelpWithoutArguments(t *testing.T) {
	out, err := runCLI(t, nil)
	if err != nil {
		t.Fatalf("root without args: %v", err)
	}
	if !strings.Contains(out, "video-encode") || !strings.Contains(out, "probe") {
		t.Fatalf("expected help output, got:\n%s", out)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, []string{"config", "init", "--path", target})
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, err := runCLI(t, []string{"config", "init", "--path", target}); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}
}

func TestConfigShowPrintsDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	out, err := runCLI(t, []string{"config", "show"})
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "no configuration file found") {
		t.Fatalf("expected defaults marker, got:\n%s", out)
	}
	if !strings.Contains(out, "[tools]") || !strings.Contains(out, "HandBrakeCLI") {
		t.Fatalf("expected rendered tool defaults, got:\n%s", out)
	}
}

func TestEncodeRejectsOutOfRangeQuality(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	for _, quality := range []string{"101", "-1"} {
		_, err := runCLI(t, []string{"--quality", quality, "input.mkv"})
		if err == nil || !strings.Contains(err.Error(), "--quality") {
			t.Fatalf("quality %s: expected flag range error, got %v", quality, err)
		}
	}
}

func TestEncodeRejectsUnknownBurnChoice(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := runCLI(t, []string{"--burn-subtitle", "sometimes", "input.mkv"})
	if err == nil {
		t.Fatal("expected error for invalid burn choice")
	}
}
