package mkvtoolnix

import (
	"context"
	"errors"
	"strings"

	"videoencode/internal/services"
)

// Property is a single name=value container property edit.
type Property struct {
	Name  string
	Value string
}

// PropEditor applies container-level metadata edits with mkvpropedit.
type PropEditor struct {
	binary string
	exec   Executor
}

// NewPropEditor constructs an mkvpropedit client. A nil executor selects the
// real subprocess implementation.
func NewPropEditor(binary string, exec Executor) (*PropEditor, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("mkvpropedit binary required")
	}
	return &PropEditor{binary: binary, exec: resolveExecutor(exec)}, nil
}

// SetVideoProperties applies all properties to the file's first video track
// in a single invocation.
func (p *PropEditor) SetVideoProperties(ctx context.Context, file string, props []Property) error {
	if len(props) == 0 {
		return nil
	}
	args := []string{file, "--edit", "track:v1"}
	for _, prop := range props {
		args = append(args, "--set", prop.Name+"="+prop.Value)
	}
	if err := p.exec.Run(ctx, p.binary, args); err != nil {
		return services.Wrap(services.ErrExternalTool, "mkvpropedit", "set video properties on "+file, err)
	}
	return nil
}

// DeleteAudioTrackName removes the name label the transcoder stamps onto the
// first audio track.
func (p *PropEditor) DeleteAudioTrackName(ctx context.Context, file string) error {
	args := []string{file, "--edit", "track:a1", "--delete", "name"}
	if err := p.exec.Run(ctx, p.binary, args); err != nil {
		return services.Wrap(services.ErrExternalTool, "mkvpropedit", "delete audio track name on "+file, err)
	}
	return nil
}
