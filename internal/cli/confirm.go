package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// terminalConfirmer asks overwrite questions on the terminal. Without
// a TTY it answers no: headless runs never clobber a final artifact
// and never hang waiting for input.
type terminalConfirmer struct {
	in  *bufio.Reader
	out io.Writer
	tty bool
}

func newTerminalConfirmer(out io.Writer) *terminalConfirmer {
	return &terminalConfirmer{
		in:  bufio.NewReader(os.Stdin),
		out: out,
		tty: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}
}

func (c *terminalConfirmer) Confirm(prompt string) bool {
	if !c.tty {
		return false
	}
	fmt.Fprintf(c.out, "%s [y/N]: ", prompt)
	line, err := c.in.ReadString('\n')
	if err != nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
