// Package editor implements the interactive config editing
// collaborator.
package editor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// Interactive opens the group config in the user's editor and blocks
// until the editor exits. The caller re-parses the file afterwards.
type Interactive struct {
	command string
}

// New picks the editor command: explicit argument, then $EDITOR, then
// vi.
func New(command string) *Interactive {
	if command == "" {
		command = os.Getenv("EDITOR")
	}
	if command == "" {
		command = "vi"
	}
	return &Interactive{command: command}
}

func (e *Interactive) Edit(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, e.command, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("edit %s with %s: %w", path, e.command, err)
	}
	return nil
}

// Nop leaves the config untouched. Used for --no-edit, dry runs and
// headless environments.
type Nop struct{}

func (Nop) Edit(context.Context, string) error { return nil }
