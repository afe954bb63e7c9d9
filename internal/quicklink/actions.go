package quicklink

import (
	"context"
	"net/url"
	"runtime"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/execabs"

	"github.com/runeberg/flare/internal/provider"
	"github.com/runeberg/flare/internal/tools"
)

// queryPlaceholder in a target is replaced with the text after the
// keyword.
const queryPlaceholder = "{query}"

// OpenURLAction opens a URL with the platform opener.
type OpenURLAction struct {
	URL string
}

// Execute implements provider.Action.
func (a *OpenURLAction) Execute(ctx context.Context) error {
	if strings.TrimSpace(a.URL) == "" {
		return errors.New("empty URL")
	}

	var cmd *execabs.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = execabs.CommandContext(ctx, "open", a.URL)
	case "windows":
		cmd = execabs.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", a.URL)
	default:
		cmd = execabs.CommandContext(ctx, "xdg-open", a.URL)
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "opening %q", a.URL)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// expandTarget substitutes the keyword remainder into a target. URL
// targets get the remainder percent-encoded.
func expandTarget(kind Kind, target, remainder string) string {
	if !strings.Contains(target, queryPlaceholder) {
		return target
	}
	if kind == KindURL {
		remainder = url.QueryEscape(remainder)
	}
	return strings.ReplaceAll(target, queryPlaceholder, remainder)
}

// actionFor builds the launch action for a resolved target.
func actionFor(kind Kind, target string) provider.Action {
	if kind == KindCommand {
		return &tools.ShellAction{Command: target}
	}
	return &OpenURLAction{URL: target}
}
