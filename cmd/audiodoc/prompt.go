package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// stdioPrompter asks yes/no questions and pauses on the process stdio.
// Implements diag.Prompter.
type stdioPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newStdioPrompter(in io.Reader, out io.Writer) *stdioPrompter {
	return &stdioPrompter{in: bufio.NewReader(in), out: out}
}

// Interactive reports true: a stdio prompter always has a human attached.
func (p *stdioPrompter) Interactive() bool { return true }

// Pause prints msg and blocks until the user presses Enter.
func (p *stdioPrompter) Pause(msg string) {
	fmt.Fprint(p.out, msg) //nolint:errcheck // best-effort output
	p.readLine()           //nolint:errcheck // a closed stdin just stops pausing
}

// Confirm asks a yes/no question. Anything but y/yes declines, including
// a closed stdin.
func (p *stdioPrompter) Confirm(q string) bool {
	fmt.Fprintf(p.out, "%s (y/n): ", q) //nolint:errcheck // best-effort output
	line, err := p.readLine()
	if err != nil && strings.TrimSpace(line) == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (p *stdioPrompter) readLine() (string, error) {
	return p.in.ReadString('\n')
}
