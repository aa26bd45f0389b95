package deps

import (
	"os"
	"path/filepath"
	"testing"

	"videoencode/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unconfigured", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available {
		t.Fatalf("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatalf("expected detail message for missing binary")
	}
	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected unconfigured status: %#v", results[2])
	}
}

func TestRequirementsCoverAllTools(t *testing.T) {
	reqs := Requirements(config.Default().Tools)
	if len(reqs) != 7 {
		t.Fatalf("expected 7 tool requirements, got %d", len(reqs))
	}
	seen := map[string]bool{}
	for _, req := range reqs {
		if req.Command == "" {
			t.Fatalf("requirement %s has no command", req.Name)
		}
		seen[req.Name] = true
	}
	for _, name := range []string{"ffprobe", "ffmpeg", "HandBrakeCLI", "mkvextract", "mkvmerge", "mkvpropedit", "dovi_tool"} {
		if !seen[name] {
			t.Fatalf("missing requirement %s", name)
		}
	}
}

func TestMissing(t *testing.T) {
	statuses := []Status{
		{Name: "a", Available: true},
		{Name: "b", Available: false},
		{Name: "c", Available: false},
	}
	missing := Missing(statuses)
	if len(missing) != 2 || missing[0] != "b" || missing[1] != "c" {
		t.Fatalf("unexpected missing list: %v", missing)
	}
}
