package diag

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/soundwell/audiodoc/internal/wincmd"
)

// noSleep records requested waits without sleeping.
func noSleep(waits *[]time.Duration) SleepFunc {
	return func(d time.Duration) { *waits = append(*waits, d) }
}

// --- ResetServicesAction ---

// A declined confirmation must leave the services untouched.
func TestResetServicesDeclinedTouchesNothing(t *testing.T) {
	f := &wincmd.Fake{}
	ctx := fakeCtx(f)
	ctx.IsAdmin = true
	ctx.Prompt = &scriptPrompter{answers: []bool{false}}

	r := NewResetServicesAction(func(time.Duration) {}).Run(ctx)
	if r.Status != StatusSkipped {
		t.Errorf("status = %v, want Skipped", r.Status)
	}
	if n := f.CallsMatching("net stop"); n != 0 {
		t.Errorf("net stop called %d times after decline, want 0", n)
	}
	if n := f.CallsMatching("net start"); n != 0 {
		t.Errorf("net start called %d times after decline, want 0", n)
	}
}

func TestResetServicesStopsThenStartsReversed(t *testing.T) {
	f := &wincmd.Fake{}
	var waits []time.Duration
	ctx := fakeCtx(f)
	ctx.IsAdmin = true
	ctx.Prompt = &scriptPrompter{answers: []bool{true}}

	r := NewResetServicesAction(noSleep(&waits)).Run(ctx)
	if r.Status != StatusOK {
		t.Fatalf("status = %v, want OK; msg=%s", r.Status, r.Message)
	}

	var lines []string
	for _, c := range f.Calls {
		lines = append(lines, c.Line())
	}
	want := []string{
		"net stop Audiosrv",
		"net stop AudioEndpointBuilder",
		"net start AudioEndpointBuilder",
		"net start Audiosrv",
	}
	if strings.Join(lines, ";") != strings.Join(want, ";") {
		t.Errorf("calls = %v, want %v", lines, want)
	}
	if len(waits) != 1 || waits[0] != 3*time.Second {
		t.Errorf("waits = %v, want one 3s settle", waits)
	}
}

func TestResetServicesRequiresAdmin(t *testing.T) {
	f := &wincmd.Fake{}
	ctx := fakeCtx(f)
	ctx.Prompt = &scriptPrompter{answers: []bool{true}}

	r := NewResetServicesAction(func(time.Duration) {}).Run(ctx)
	if r.Status != StatusError {
		t.Errorf("status = %v, want Error without admin", r.Status)
	}
	if len(f.Calls) != 0 {
		t.Errorf("commands issued without admin: %v", f.Calls)
	}
}

func TestResetServicesReportsStartFailures(t *testing.T) {
	f := (&wincmd.Fake{}).On("net start Audiosrv", wincmd.Result{ExitCode: 2, Stderr: "denied"})
	ctx := fakeCtx(f)
	ctx.IsAdmin = true
	ctx.Prompt = &scriptPrompter{answers: []bool{true}}

	r := NewResetServicesAction(func(time.Duration) {}).Run(ctx)
	if r.Status != StatusError {
		t.Errorf("status = %v, want Error", r.Status)
	}
	if !strings.Contains(r.Message, "Audiosrv") {
		t.Errorf("message = %q, want failed service named", r.Message)
	}
}

// --- RestartDriverAction ---

func TestRestartDriverRequiresAdmin(t *testing.T) {
	f := &wincmd.Fake{}
	ctx := fakeCtx(f)

	r := NewRestartDriverAction(func(time.Duration) {}).Run(ctx)
	if r.Status != StatusError {
		t.Errorf("status = %v, want Error", r.Status)
	}
	if len(f.Calls) != 0 {
		t.Errorf("commands issued without admin: %v", f.Calls)
	}
}

func TestRestartDriverDisableSettleEnable(t *testing.T) {
	f := &wincmd.Fake{}
	var waits []time.Duration
	ctx := fakeCtx(f)
	ctx.IsAdmin = true

	r := NewRestartDriverAction(noSleep(&waits)).Run(ctx)
	if r.Status != StatusOK {
		t.Fatalf("status = %v, want OK; msg=%s", r.Status, r.Message)
	}
	if f.CallsMatching("Disable-PnpDevice") != 1 || f.CallsMatching("Enable-PnpDevice") != 1 {
		t.Errorf("calls = %v, want one disable and one enable", f.Calls)
	}
	// Disable must precede enable.
	dis := f.LastMatching("Disable-PnpDevice")
	en := f.LastMatching("Enable-PnpDevice")
	if dis == nil || en == nil || f.Calls[0].Line() != dis.Line() {
		t.Errorf("disable not first: %v", f.Calls)
	}
	if len(waits) != 1 || waits[0] != 5*time.Second {
		t.Errorf("waits = %v, want one 5s settle", waits)
	}
	if f.CallsMatching("Realtek") != 2 {
		t.Errorf("device pattern not embedded in both commands: %v", f.Calls)
	}
}

func TestRestartDriverEnableFailure(t *testing.T) {
	f := (&wincmd.Fake{}).On("Enable-PnpDevice", wincmd.Result{ExitCode: 1, Stderr: "device gone"})
	ctx := fakeCtx(f)
	ctx.IsAdmin = true

	r := NewRestartDriverAction(func(time.Duration) {}).Run(ctx)
	if r.Status != StatusError {
		t.Errorf("status = %v, want Error", r.Status)
	}
	if !strings.Contains(r.Message, "re-enable") {
		t.Errorf("message = %q", r.Message)
	}
}

// --- TroubleshooterAction ---

func TestTroubleshooterLaunchesDetached(t *testing.T) {
	f := &wincmd.Fake{}
	r := (&TroubleshooterAction{}).Run(fakeCtx(f))
	if r.Status != StatusOK {
		t.Errorf("status = %v, want OK", r.Status)
	}
	call := f.LastMatching("msdt.exe")
	if call == nil || !call.Detached {
		t.Errorf("calls = %v, want detached msdt.exe", f.Calls)
	}
	if call != nil && !strings.Contains(call.Line(), "AudioPlaybackDiagnostic") {
		t.Errorf("call = %q, want diagnostic pack id", call.Line())
	}
}

func TestTroubleshooterLaunchFailure(t *testing.T) {
	f := &wincmd.Fake{}
	f.OnErr("msdt.exe", errors.New("not found"))
	r := (&TroubleshooterAction{}).Run(fakeCtx(f))
	if r.Status != StatusError {
		t.Errorf("status = %v, want Error", r.Status)
	}
	if r.FixHint == "" {
		t.Error("missing manual-launch hint")
	}
}

// --- Playback actions ---

func TestSystemSoundsHeard(t *testing.T) {
	f := &wincmd.Fake{}
	ctx := fakeCtx(f)
	ctx.Prompt = &scriptPrompter{answers: []bool{true}}

	r := NewSystemSoundsAction(func(time.Duration) {}).Run(ctx)
	if r.Status != StatusOK {
		t.Errorf("status = %v, want OK", r.Status)
	}
	if f.CallsMatching("SystemSounds") != 2 {
		t.Errorf("calls = %v, want Beep and Exclamation", f.Calls)
	}
}

func TestSystemSoundsNotHeard(t *testing.T) {
	f := &wincmd.Fake{}
	ctx := fakeCtx(f)
	ctx.Prompt = &scriptPrompter{answers: []bool{false}}

	r := NewSystemSoundsAction(func(time.Duration) {}).Run(ctx)
	if r.Status != StatusWarning {
		t.Errorf("status = %v, want Warning", r.Status)
	}
}

func TestTestToneUsesConfiguredParameters(t *testing.T) {
	f := &wincmd.Fake{}
	ctx := fakeCtx(f)
	ctx.Cfg.Tone.FrequencyHz = 440
	ctx.Cfg.Tone.DurationMS = 1500
	ctx.Prompt = &scriptPrompter{answers: []bool{true}}

	r := (&TestToneAction{}).Run(ctx)
	if r.Status != StatusOK {
		t.Errorf("status = %v, want OK", r.Status)
	}
	if f.LastMatching("beep(440,1500)") == nil {
		t.Errorf("calls = %v, want configured beep parameters", f.Calls)
	}
}

// --- DriverDownloadAction ---

func TestDriverDownloadOpensDeviceManagerOnYes(t *testing.T) {
	f := &wincmd.Fake{}
	ctx := fakeCtx(f)
	ctx.Prompt = &scriptPrompter{answers: []bool{true}}

	r := (&DriverDownloadAction{}).Run(ctx)
	if r.Status != StatusOK {
		t.Errorf("status = %v, want OK", r.Status)
	}
	call := f.LastMatching("devmgmt.msc")
	if call == nil || !call.Detached {
		t.Errorf("calls = %v, want detached devmgmt.msc", f.Calls)
	}
}

func TestDriverDownloadGuidanceOnlyOnNo(t *testing.T) {
	f := &wincmd.Fake{}
	ctx := fakeCtx(f)
	ctx.Prompt = &scriptPrompter{answers: []bool{false}}

	r := (&DriverDownloadAction{}).Run(ctx)
	if r.Status != StatusOK {
		t.Errorf("status = %v, want OK", r.Status)
	}
	if len(f.Calls) != 0 {
		t.Errorf("commands issued after decline: %v", f.Calls)
	}
	if !strings.Contains(r.Output, "manufacturer") {
		t.Errorf("guidance output = %q", r.Output)
	}
}
