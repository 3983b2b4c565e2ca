// Package runner runs the external tools the CLI depends on (ssh, ssh-keygen).
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"

	"github.com/chainguard-dev/clog"
)

// Runner looks up and executes external commands
type Runner interface {
	// LookPath resolves a tool on PATH
	LookPath(name string) (string, error)

	// Run executes a command with the terminal attached
	Run(ctx context.Context, name string, args ...string) error

	// Output executes a command and returns its stdout
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// MissingDependencyError reports a required tool that is not installed
type MissingDependencyError struct {
	Tool string
	Hint string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("%s is not installed or not on PATH", e.Tool)
}

// Exec runs commands as child processes
type Exec struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// New returns an Exec wired to the process's standard streams
func New() *Exec {
	return &Exec{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (e *Exec) LookPath(name string) (string, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", &MissingDependencyError{Tool: name, Hint: InstallHint(name)}
		}
		return "", fmt.Errorf("failed to look up %s: %w", name, err)
	}
	return path, nil
}

func (e *Exec) Run(ctx context.Context, name string, args ...string) error {
	clog.FromContext(ctx).Debug("running command", "name", name, "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w", name, err)
	}
	return nil
}

func (e *Exec) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	clog.FromContext(ctx).Debug("running command", "name", name, "args", args)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = e.Stderr

	out, err := cmd.Output()
	if err != nil {
		return out, fmt.Errorf("%s failed: %w", name, err)
	}
	return out, nil
}

// Require resolves tool and returns a MissingDependencyError when it is absent
func Require(r Runner, tool string) (string, error) {
	path, err := r.LookPath(tool)
	if err != nil {
		var missing *MissingDependencyError
		if errors.As(err, &missing) {
			return "", missing
		}
		return "", &MissingDependencyError{Tool: tool, Hint: InstallHint(tool)}
	}
	return path, nil
}

// InstallHint returns platform specific install instructions for the
// OpenSSH tools
func InstallHint(tool string) string {
	switch tool {
	case "ssh", "ssh-keygen":
	default:
		return fmt.Sprintf("Install %s and make sure it is on PATH", tool)
	}

	switch runtime.GOOS {
	case "darwin":
		return "OpenSSH ships with macOS; check that /usr/bin is on PATH"
	case "windows":
		return "Enable it under Settings > Apps > Optional features > OpenSSH Client"
	default:
		return "Install the OpenSSH client, e.g. 'sudo apt install openssh-client' or 'sudo dnf install openssh-clients'"
	}
}
