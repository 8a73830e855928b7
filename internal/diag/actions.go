package diag

import (
	"fmt"
	"strings"
	"time"

	"github.com/soundwell/audiodoc/internal/wincmd"
)

// SleepFunc waits for a duration. Actions take one so tests run instantly
// and the CLI can decorate waits with a spinner.
type SleepFunc func(time.Duration)

func orSleep(s SleepFunc) SleepFunc {
	if s == nil {
		return time.Sleep
	}
	return s
}

// --- Playback tests ---

// SystemSoundsAction plays the stock system sounds and asks whether they
// were audible. Interactive: skipped entirely without a human listener.
type SystemSoundsAction struct {
	sleep SleepFunc
}

// NewSystemSoundsAction creates the system sounds playback test.
// A nil sleep uses time.Sleep.
func NewSystemSoundsAction(sleep SleepFunc) *SystemSoundsAction {
	return &SystemSoundsAction{sleep: orSleep(sleep)}
}

// Name returns the action identifier.
func (a *SystemSoundsAction) Name() string { return "system-sounds" }

// Title returns the section header.
func (a *SystemSoundsAction) Title() string { return "Playing Windows Test Sound" }

// Kind returns KindInteractive.
func (a *SystemSoundsAction) Kind() StepKind { return KindInteractive }

// ConsentPrompt customizes the consent question.
func (a *SystemSoundsAction) ConsentPrompt() string {
	return "Play the Windows system sounds test?"
}

// Run plays two system sounds with a beat between them, then asks.
func (a *SystemSoundsAction) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: a.Name()}

	var out strings.Builder
	out.WriteString("Attempting to play Windows default sound...\n")
	if _, err := wincmd.Powershell(ctx.Cmd, `[System.Media.SystemSounds]::Beep.Play()`); err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("playing system sound: %v", err)
		return r
	}
	a.sleep(1 * time.Second)

	out.WriteString("Attempting to play Windows exclamation sound...")
	if _, err := wincmd.Powershell(ctx.Cmd, `[System.Media.SystemSounds]::Exclamation.Play()`); err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("playing system sound: %v", err)
		return r
	}
	a.sleep(1 * time.Second)
	r.Output = out.String()

	if ctx.Prompt.Confirm("Did you hear the system sounds?") {
		r.Status = StatusOK
		r.Message = "system sounds audible — audio is working"
	} else {
		r.Status = StatusWarning
		r.Message = "no sound was heard"
	}
	return r
}

// CanFix returns false.
func (a *SystemSoundsAction) CanFix() bool { return false }

// Fix is a no-op.
func (a *SystemSoundsAction) Fix(_ *RunContext) error { return nil }

// TestToneAction plays a console beep at the configured frequency and
// duration, then asks whether it was audible.
type TestToneAction struct{}

// Name returns the action identifier.
func (a *TestToneAction) Name() string { return "test-tone" }

// Title returns the section header.
func (a *TestToneAction) Title() string { return "Playing Test Tone" }

// Kind returns KindInteractive.
func (a *TestToneAction) Kind() StepKind { return KindInteractive }

// ConsentPrompt customizes the consent question.
func (a *TestToneAction) ConsentPrompt() string { return "Play a test tone?" }

// Run beeps and asks.
func (a *TestToneAction) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: a.Name()}
	freq, dur := ctx.Cfg.Tone.FrequencyHz, ctx.Cfg.Tone.DurationMS
	r.Output = fmt.Sprintf("Attempting to play a %dHz test tone for %.1f seconds...",
		freq, float64(dur)/1000)

	if _, err := wincmd.Powershell(ctx.Cmd, fmt.Sprintf(`[console]::beep(%d,%d)`, freq, dur)); err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("playing test tone: %v", err)
		return r
	}

	if ctx.Prompt.Confirm("Did you hear the test tone?") {
		r.Status = StatusOK
		r.Message = "test tone audible — audio is working"
	} else {
		r.Status = StatusWarning
		r.Message = "no sound was heard"
	}
	return r
}

// CanFix returns false.
func (a *TestToneAction) CanFix() bool { return false }

// Fix is a no-op.
func (a *TestToneAction) Fix(_ *RunContext) error { return nil }

// --- Remediation actions ---

// TroubleshooterAction launches the Windows audio troubleshooter wizard,
// detached — the wizard owns its own UI and lifetime.
type TroubleshooterAction struct{}

// Name returns the action identifier.
func (a *TroubleshooterAction) Name() string { return "troubleshooter" }

// Title returns the section header.
func (a *TroubleshooterAction) Title() string { return "Running Windows Audio Troubleshooter" }

// Kind returns KindInteractive.
func (a *TroubleshooterAction) Kind() StepKind { return KindInteractive }

// ConsentPrompt customizes the consent question.
func (a *TroubleshooterAction) ConsentPrompt() string {
	return "Do you want to run the Windows Audio Troubleshooter?"
}

// Run launches the wizard without waiting.
func (a *TroubleshooterAction) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: a.Name()}
	if err := ctx.Cmd.Start("msdt.exe", "/id", "AudioPlaybackDiagnostic"); err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("launching troubleshooter: %v", err)
		r.FixHint = "run it manually: Settings > System > Troubleshoot > Other troubleshooters > Playing Audio"
		return r
	}
	r.Status = StatusOK
	r.Message = "troubleshooter launched — follow the on-screen instructions"
	return r
}

// CanFix returns false.
func (a *TroubleshooterAction) CanFix() bool { return false }

// Fix is a no-op.
func (a *TroubleshooterAction) Fix(_ *RunContext) error { return nil }

// RestartDriverAction disables the matched PnP device, waits for it to
// settle, and re-enables it. Requires elevation.
type RestartDriverAction struct {
	sleep SleepFunc
}

// NewRestartDriverAction creates the driver restart action.
// A nil sleep uses time.Sleep.
func NewRestartDriverAction(sleep SleepFunc) *RestartDriverAction {
	return &RestartDriverAction{sleep: orSleep(sleep)}
}

// Name returns the action identifier.
func (a *RestartDriverAction) Name() string { return "restart-driver" }

// Title returns the section header.
func (a *RestartDriverAction) Title() string { return "Restarting Audio Driver" }

// Kind returns KindAction.
func (a *RestartDriverAction) Kind() StepKind { return KindAction }

// Run disables and re-enables the device.
func (a *RestartDriverAction) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: a.Name()}
	if !ctx.IsAdmin {
		r.Status = StatusError
		r.Message = "admin privileges required to restart drivers"
		r.FixHint = "re-run audiodoc as administrator"
		return r
	}

	match := ctx.Cfg.Driver.Match
	settle := time.Duration(ctx.Cfg.Driver.SettleSeconds) * time.Second
	r.Output = fmt.Sprintf("Disabling audio device (%s), waiting %s, re-enabling...", match, settle)

	disable := fmt.Sprintf(
		`Get-PnpDevice | Where-Object {$_.FriendlyName -like '%s'} | Disable-PnpDevice -Confirm:$false`, match)
	// Disable failures are deliberately not fatal: the device may already
	// be disabled, and the enable below is what restores it either way.
	wincmd.Powershell(ctx.Cmd, disable) //nolint:errcheck // see above

	a.sleep(settle)

	enable := fmt.Sprintf(
		`Get-PnpDevice | Where-Object {$_.FriendlyName -like '%s'} | Enable-PnpDevice -Confirm:$false`, match)
	res, err := wincmd.Powershell(ctx.Cmd, enable)
	if err != nil || res.ExitCode != 0 {
		r.Status = StatusError
		r.Message = fmt.Sprintf("failed to re-enable audio device: %s", runErr(res, err))
		return r
	}
	r.Status = StatusOK
	r.Message = "audio driver successfully restarted"
	return r
}

// CanFix returns false — the action is itself the remediation.
func (a *RestartDriverAction) CanFix() bool { return false }

// Fix is a no-op.
func (a *RestartDriverAction) Fix(_ *RunContext) error { return nil }

// ResetServicesAction stops the configured audio services and starts them
// again in reverse order. Confirmation-gated: a declined confirmation
// performs zero service operations. Requires elevation.
type ResetServicesAction struct {
	sleep SleepFunc
}

// NewResetServicesAction creates the service reset action.
// A nil sleep uses time.Sleep.
func NewResetServicesAction(sleep SleepFunc) *ResetServicesAction {
	return &ResetServicesAction{sleep: orSleep(sleep)}
}

// Name returns the action identifier.
func (a *ResetServicesAction) Name() string { return "reset-services" }

// Title returns the section header.
func (a *ResetServicesAction) Title() string { return "Resetting Windows Audio Components" }

// Kind returns KindAction.
func (a *ResetServicesAction) Kind() StepKind { return KindAction }

// Run restarts the audio services.
func (a *ResetServicesAction) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: a.Name()}
	if !ctx.IsAdmin {
		r.Status = StatusError
		r.Message = "admin privileges required to reset audio components"
		r.FixHint = "re-run audiodoc as administrator"
		return r
	}

	if !ctx.Prompt.Confirm("This will restart all Windows audio services and temporarily disable system audio. Continue?") {
		r.Status = StatusSkipped
		r.Message = "operation cancelled"
		return r
	}

	services := ctx.Cfg.Services.Audio
	delay := time.Duration(ctx.Cfg.Services.RestartDelaySeconds) * time.Second

	var out strings.Builder
	out.WriteString("Stopping audio services...\n")
	for _, svc := range services {
		// Stop failures are tolerated — the service may not be running.
		ctx.Cmd.Run("net", "stop", svc) //nolint:errcheck // see above
	}

	a.sleep(delay)

	out.WriteString("Starting audio services...")
	var failed []string
	// Start in reverse order so dependencies come up first.
	for i := len(services) - 1; i >= 0; i-- {
		res, err := ctx.Cmd.Run("net", "start", services[i])
		if err != nil || res.ExitCode != 0 {
			failed = append(failed, services[i])
		}
	}
	r.Output = out.String()

	if len(failed) > 0 {
		r.Status = StatusError
		r.Message = fmt.Sprintf("failed to start: %s", strings.Join(failed, ", "))
		return r
	}
	r.Status = StatusOK
	r.Message = "audio services have been restarted"
	return r
}

// CanFix returns false.
func (a *ResetServicesAction) CanFix() bool { return false }

// Fix is a no-op.
func (a *ResetServicesAction) Fix(_ *RunContext) error { return nil }

// DriverDownloadAction prints guidance for obtaining a current audio
// driver and optionally opens Device Manager.
type DriverDownloadAction struct{}

// Name returns the action identifier.
func (a *DriverDownloadAction) Name() string { return "driver-download" }

// Title returns the section header.
func (a *DriverDownloadAction) Title() string { return "Downloading Latest Audio Driver" }

// Kind returns KindAction.
func (a *DriverDownloadAction) Kind() StepKind { return KindAction }

// Run prints the guidance and offers to open Device Manager.
func (a *DriverDownloadAction) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: a.Name()}
	r.Output = strings.Join([]string{
		"To download the latest audio driver, you have several options:",
		"",
		"1. From your PC manufacturer's website (recommended):",
		"   - Visit your PC/motherboard manufacturer's support page",
		"   - Find your specific model and download drivers from there",
		"",
		"2. From the codec vendor's website (e.g. realtek.com/en/downloads)",
		"",
		"3. Using Device Manager:",
		"   - Sound, video and game controllers > your device > Update driver",
		"",
		"4. Using Windows Update:",
		"   - Settings > Windows Update > Optional updates",
	}, "\n")

	if ctx.Prompt.Confirm("Would you like to open Device Manager to update the driver?") {
		if err := ctx.Cmd.Start("cmd", "/c", "start", "devmgmt.msc"); err != nil {
			r.Status = StatusError
			r.Message = fmt.Sprintf("opening Device Manager: %v", err)
			return r
		}
		r.Status = StatusOK
		r.Message = "Device Manager opened — navigate to Sound, video and game controllers"
		return r
	}
	r.Status = StatusOK
	r.Message = "guidance printed"
	return r
}

// CanFix returns false.
func (a *DriverDownloadAction) CanFix() bool { return false }

// Fix is a no-op.
func (a *DriverDownloadAction) Fix(_ *RunContext) error { return nil }
