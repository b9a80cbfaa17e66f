package commands

import (
	"fmt"
	"io"
)

// terminalNotifier renders session notifications as terminal output
type terminalNotifier struct {
	out io.Writer
}

func newNotifier(out io.Writer) *terminalNotifier {
	return &terminalNotifier{out: out}
}

func (n *terminalNotifier) Success(msg string) {
	fmt.Fprintf(n.out, "✓ %s\n", msg)
}

func (n *terminalNotifier) Error(msg string) {
	fmt.Fprintf(n.out, "✗ %s\n", msg)
}

func (n *terminalNotifier) Info(msg string) {
	fmt.Fprintf(n.out, "%s\n", msg)
}
