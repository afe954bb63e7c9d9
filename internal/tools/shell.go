package tools

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/shlex"
	"golang.org/x/sys/execabs"

	"github.com/runeberg/flare/internal/provider"
)

// ShellPrefix marks a query as a shell-command request.
const ShellPrefix = ">"

// shellMetaChars force interpreter mode; plain argv execution cannot
// honor them.
const shellMetaChars = "|&;<>$`*?~(){}"

// ParseShellCommand extracts the command text from a ">"-prefixed
// query. A bare ">" (possibly padded with whitespace) is not a shell
// request and falls through to normal search.
func ParseShellCommand(query string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(query), ShellPrefix)
	if !ok {
		return "", false
	}
	cmd := strings.TrimSpace(rest)
	if cmd == "" {
		return "", false
	}
	return cmd, true
}

// ShellCandidate builds the single result for a shell-command query.
// The title is the command without its ">" prefix.
func ShellCandidate(command string) provider.Candidate {
	return provider.Candidate{
		Title:    command,
		Subtitle: "Run in shell",
		Category: provider.CategoryAction,
		Action:   &ShellAction{Command: command},
	}
}

// ShellAction launches a command detached from the launcher process.
type ShellAction struct {
	Command string
}

// Execute starts the command without waiting for it. Simple commands
// run as argv directly; anything with shell metacharacters goes
// through /bin/sh -c.
func (a *ShellAction) Execute(ctx context.Context) error {
	if strings.TrimSpace(a.Command) == "" {
		return errors.New("empty shell command")
	}

	var cmd *execabs.Cmd
	if strings.ContainsAny(a.Command, shellMetaChars) {
		cmd = execabs.CommandContext(ctx, "/bin/sh", "-c", a.Command)
	} else {
		argv, err := shlex.Split(a.Command)
		if err != nil || len(argv) == 0 {
			// Quoting shlex cannot parse is still valid shell input.
			cmd = execabs.CommandContext(ctx, "/bin/sh", "-c", a.Command)
		} else {
			cmd = execabs.CommandContext(ctx, argv[0], argv[1:]...)
		}
	}

	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "starting %q", a.Command)
	}
	// Reap the child in the background so it never zombies.
	go func() { _ = cmd.Wait() }()
	return nil
}
