package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/soundwell/audiodoc/internal/config"
	"github.com/soundwell/audiodoc/internal/wincmd"
)

// mockStep is a configurable Step for testing the runner.
type mockStep struct {
	name   string
	kind   StepKind
	status StepStatus
	msg    string
	canFix bool
	fixErr error
	fixed  bool // set by Fix
	runs   int
	order  *[]string // shared execution log
}

func (m *mockStep) Name() string   { return m.name }
func (m *mockStep) Title() string  { return "Section " + m.name }
func (m *mockStep) Kind() StepKind { return m.kind }
func (m *mockStep) Run(_ *RunContext) *StepResult {
	m.runs++
	if m.order != nil {
		*m.order = append(*m.order, m.name)
	}
	st := m.status
	if m.fixed {
		st = StatusOK
	}
	return &StepResult{Name: m.name, Status: st, Message: m.msg}
}
func (m *mockStep) CanFix() bool { return m.canFix }
func (m *mockStep) Fix(_ *RunContext) error {
	if m.fixErr != nil {
		return m.fixErr
	}
	m.fixed = true
	return nil
}

// scriptPrompter is an interactive Prompter with pre-scripted answers.
type scriptPrompter struct {
	answers   []bool
	questions []string
	pauses    []string
}

func (p *scriptPrompter) Interactive() bool { return true }
func (p *scriptPrompter) Pause(msg string)  { p.pauses = append(p.pauses, msg) }
func (p *scriptPrompter) Confirm(q string) bool {
	p.questions = append(p.questions, q)
	if len(p.answers) == 0 {
		return false
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a
}

func testCtx(prompt Prompter) *RunContext {
	if prompt == nil {
		prompt = NopPrompter{}
	}
	return &RunContext{
		Cmd:    &wincmd.Fake{},
		Cfg:    config.Default(),
		Prompt: prompt,
	}
}

func TestRunnerDeclaredOrderOnce(t *testing.T) {
	var order []string
	r := &Runner{}
	steps := []*mockStep{
		{name: "a", status: StatusOK, order: &order},
		{name: "b", status: StatusError, msg: "bad", order: &order},
		{name: "c", status: StatusOK, order: &order},
	}
	for _, s := range steps {
		r.Register(s)
	}

	var buf bytes.Buffer
	r.Run(testCtx(nil), &buf, Options{})

	if got, want := strings.Join(order, ","), "a,b,c"; got != want {
		t.Errorf("execution order = %q, want %q", got, want)
	}
	for _, s := range steps {
		if s.runs != 1 {
			t.Errorf("step %s ran %d times, want 1", s.name, s.runs)
		}
	}
}

func TestRunnerFailureIsSoft(t *testing.T) {
	r := &Runner{}
	r.Register(&mockStep{name: "boom", status: StatusError, msg: "exploded"})
	after := &mockStep{name: "after", status: StatusOK, msg: "fine"}
	r.Register(after)

	var buf bytes.Buffer
	report := r.Run(testCtx(nil), &buf, Options{})

	if after.runs != 1 {
		t.Error("step after a failure did not run")
	}
	if report.Failed != 1 || report.Passed != 1 {
		t.Errorf("report = %+v, want 1 failed 1 passed", report)
	}
	if !strings.Contains(buf.String(), "ERROR: exploded") {
		t.Errorf("output missing error acknowledgment line: %q", buf.String())
	}
}

func TestRunnerFixMode(t *testing.T) {
	r := &Runner{}
	r.Register(&mockStep{name: "fixable", status: StatusWarning, msg: "stopped", canFix: true})

	var buf bytes.Buffer
	report := r.Run(testCtx(nil), &buf, Options{Fix: true})

	if report.Fixed != 1 || report.Passed != 1 {
		t.Errorf("report = %+v, want 1 fixed 1 passed", report)
	}
	if !strings.Contains(buf.String(), "(fixed)") {
		t.Errorf("output missing fixed marker: %q", buf.String())
	}
}

func TestRunnerFixNotAttemptedWhenOK(t *testing.T) {
	s := &mockStep{name: "healthy", status: StatusOK, canFix: true}
	var buf bytes.Buffer
	RunStep(testCtx(nil), s, &buf, true)
	if s.fixed {
		t.Error("Fix called on an OK step")
	}
}

func TestRunnerInteractiveSkippedNonInteractive(t *testing.T) {
	s := &mockStep{name: "tone", kind: KindInteractive, status: StatusOK}
	var buf bytes.Buffer
	result := RunStep(testCtx(nil), s, &buf, false)

	if s.runs != 0 {
		t.Error("interactive step ran in a non-interactive run")
	}
	if result.Status != StatusSkipped {
		t.Errorf("status = %v, want StatusSkipped", result.Status)
	}
}

func TestRunnerInteractiveDeclinedSkips(t *testing.T) {
	p := &scriptPrompter{answers: []bool{false}}
	s := &mockStep{name: "tone", kind: KindInteractive, status: StatusOK}
	var buf bytes.Buffer
	result := RunStep(testCtx(p), s, &buf, false)

	if s.runs != 0 {
		t.Error("declined interactive step still ran")
	}
	if result.Status != StatusSkipped {
		t.Errorf("status = %v, want StatusSkipped", result.Status)
	}
	if len(p.questions) != 1 || !strings.Contains(p.questions[0], "Section tone") {
		t.Errorf("consent question = %v", p.questions)
	}
}

func TestRunnerInteractiveAcceptedRuns(t *testing.T) {
	p := &scriptPrompter{answers: []bool{true}}
	s := &mockStep{name: "tone", kind: KindInteractive, status: StatusOK, msg: "ok"}
	var buf bytes.Buffer
	result := RunStep(testCtx(p), s, &buf, false)

	if s.runs != 1 {
		t.Error("accepted interactive step did not run")
	}
	if result.Status != StatusOK {
		t.Errorf("status = %v, want StatusOK", result.Status)
	}
}

func TestRunnerPausesBetweenSections(t *testing.T) {
	p := &scriptPrompter{}
	r := &Runner{}
	r.Register(&mockStep{name: "a", status: StatusOK})
	r.Register(&mockStep{name: "b", status: StatusOK})
	r.Register(&mockStep{name: "c", status: StatusOK})

	var buf bytes.Buffer
	r.Run(testCtx(p), &buf, Options{})

	// No pause before the very first section.
	if len(p.pauses) != 2 {
		t.Errorf("pauses = %d, want 2", len(p.pauses))
	}
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintSummary(&buf, &Report{Passed: 3, Warned: 1, Skipped: 2})
	got := buf.String()
	if !strings.Contains(got, "3 passed, 1 warnings, 2 skipped") {
		t.Errorf("summary = %q", got)
	}

	buf.Reset()
	PrintSummary(&buf, &Report{})
	if !strings.Contains(buf.String(), "No steps ran.") {
		t.Errorf("empty summary = %q", buf.String())
	}
}

func TestPrintResultVerboseDetails(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, &StepResult{
		Name:    "x",
		Status:  StatusWarning,
		Message: "hmm",
		Details: []string{"line one"},
		FixHint: "try this",
	}, true)
	got := buf.String()
	if !strings.Contains(got, "line one") {
		t.Errorf("verbose details missing: %q", got)
	}
	if !strings.Contains(got, "hint: try this") {
		t.Errorf("fix hint missing: %q", got)
	}
}
