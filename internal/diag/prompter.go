package diag

// Prompter answers the interactive questions a run asks: pausing between
// sections, yes/no confirmations. Implementations live at the CLI layer;
// tests and non-interactive runs use NopPrompter.
type Prompter interface {
	// Pause blocks until the user acknowledges (typically Enter).
	Pause(msg string)
	// Confirm asks a yes/no question and reports the answer.
	Confirm(question string) bool
	// Interactive reports whether a human is on the other end. When
	// false the runner skips pauses and interactive steps.
	Interactive() bool
}

// NopPrompter is the non-interactive Prompter: pauses return immediately
// and every confirmation is declined, so consent-gated actions are skipped
// rather than run unattended.
type NopPrompter struct{}

// Pause returns immediately.
func (NopPrompter) Pause(string) {}

// Confirm declines.
func (NopPrompter) Confirm(string) bool { return false }

// Interactive reports false.
func (NopPrompter) Interactive() bool { return false }
