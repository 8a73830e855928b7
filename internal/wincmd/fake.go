package wincmd

import (
	"fmt"
	"strings"
)

// Canned is one prepared response for [Fake]. The first Canned whose
// Contains substring appears in the full command line is used.
type Canned struct {
	Contains string
	Result   Result
	Err      error
}

// Call records a single command invocation on [Fake].
type Call struct {
	Name     string
	Args     []string
	Detached bool
}

// Line returns the full command line of the call, space-joined.
func (c Call) Line() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Fake is an in-memory [Runner] for testing. It matches invocations
// against canned responses by substring and records every call (spy).
// The zero value returns Default for everything.
type Fake struct {
	Canned  []Canned
	Default Result
	// Paths maps binary names to LookPath results; missing names error.
	Paths map[string]string
	Calls []Call
}

// On appends a canned response matched when the command line contains
// substr. Returns the Fake for chaining during test setup.
func (f *Fake) On(substr string, res Result) *Fake {
	f.Canned = append(f.Canned, Canned{Contains: substr, Result: res})
	return f
}

// OnErr appends a canned invocation error matched by substring.
func (f *Fake) OnErr(substr string, err error) *Fake {
	f.Canned = append(f.Canned, Canned{Contains: substr, Err: err})
	return f
}

// Run records the call and returns the first matching canned response.
func (f *Fake) Run(name string, args ...string) (Result, error) {
	call := Call{Name: name, Args: args}
	f.Calls = append(f.Calls, call)
	return f.match(call.Line())
}

// Start records a detached call; canned errors still apply.
func (f *Fake) Start(name string, args ...string) error {
	call := Call{Name: name, Args: args, Detached: true}
	f.Calls = append(f.Calls, call)
	_, err := f.match(call.Line())
	return err
}

// LookPath resolves from Paths or errors.
func (f *Fake) LookPath(name string) (string, error) {
	if p, ok := f.Paths[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%s not found in fake PATH", name)
}

func (f *Fake) match(line string) (Result, error) {
	for _, c := range f.Canned {
		if strings.Contains(line, c.Contains) {
			return c.Result, c.Err
		}
	}
	return f.Default, nil
}

// CallsMatching counts recorded calls whose command line contains substr.
func (f *Fake) CallsMatching(substr string) int {
	n := 0
	for _, c := range f.Calls {
		if strings.Contains(c.Line(), substr) {
			n++
		}
	}
	return n
}

// LastMatching returns the most recent call whose line contains substr,
// or nil when none matched.
func (f *Fake) LastMatching(substr string) *Call {
	for i := len(f.Calls) - 1; i >= 0; i-- {
		if strings.Contains(f.Calls[i].Line(), substr) {
			return &f.Calls[i]
		}
	}
	return nil
}
