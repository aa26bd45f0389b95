// Package deps verifies the external binaries the pipeline shells out to.
// Every tool is checked before any probing or encoding begins.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"videoencode/internal/config"
)

// Requirement defines an external dependency video-encode relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Available   bool
	Detail      string
}

// Requirements returns the full tool set for the configured binaries.
func Requirements(tools config.Tools) []Requirement {
	return []Requirement{
		{Name: "ffprobe", Command: tools.FFprobe, Description: "Stream and container metadata probing"},
		{Name: "ffmpeg", Command: tools.FFmpeg, Description: "Video elementary stream copy-remux for RPU extraction"},
		{Name: "HandBrakeCLI", Command: tools.HandBrake, Description: "Video transcoding"},
		{Name: "mkvextract", Command: tools.MKVExtract, Description: "Elementary stream extraction"},
		{Name: "mkvmerge", Command: tools.MKVMerge, Description: "Container remuxing"},
		{Name: "mkvpropedit", Command: tools.MKVPropEdit, Description: "Container property editing"},
		{Name: "dovi_tool", Command: tools.DoviTool, Description: "Dolby Vision RPU extraction and injection"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Missing returns the names of unavailable tools, preserving requirement order.
func Missing(statuses []Status) []string {
	var missing []string
	for _, status := range statuses {
		if !status.Available {
			missing = append(missing, status.Name)
		}
	}
	return missing
}
