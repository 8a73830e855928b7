package diag

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soundwell/audiodoc/internal/wincmd"
)

// --- Host checks ---

// adminProbe asks the security principal whether the process is elevated.
// Output is "True" or "False".
const adminProbe = `([Security.Principal.WindowsPrincipal][Security.Principal.WindowsIdentity]::GetCurrent()).IsInRole([Security.Principal.WindowsBuiltInRole]::Administrator)`

// AdminCheck determines whether the process runs elevated and records the
// answer in the RunContext for later action steps.
type AdminCheck struct{}

// Name returns the check identifier.
func (c *AdminCheck) Name() string { return "admin-privileges" }

// Title returns the section header.
func (c *AdminCheck) Title() string { return "Checking Admin Privileges" }

// Kind returns KindCheck.
func (c *AdminCheck) Kind() StepKind { return KindCheck }

// Run queries the security principal and sets ctx.IsAdmin.
func (c *AdminCheck) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: c.Name()}
	res, err := wincmd.Powershell(ctx.Cmd, adminProbe)
	if err != nil || res.ExitCode != 0 {
		r.Status = StatusError
		r.Message = fmt.Sprintf("could not determine admin privileges: %s", runErr(res, err))
		return r
	}
	ctx.IsAdmin = strings.EqualFold(strings.TrimSpace(res.Stdout), "true")
	r.Message = fmt.Sprintf("running with admin privileges: %v", ctx.IsAdmin)
	if ctx.IsAdmin {
		r.Status = StatusOK
		return r
	}
	r.Status = StatusWarning
	r.Details = []string{
		"Some tests and all driver operations may fail without admin privileges.",
		"Consider re-running audiodoc as administrator.",
	}
	return r
}

// CanFix returns false — elevation cannot be acquired mid-run.
func (c *AdminCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *AdminCheck) Fix(_ *RunContext) error { return nil }

// WindowsVersionCheck verifies the host build number meets the configured
// threshold.
type WindowsVersionCheck struct{}

// Name returns the check identifier.
func (c *WindowsVersionCheck) Name() string { return "windows-version" }

// Title returns the section header.
func (c *WindowsVersionCheck) Title() string { return "Checking Windows Version" }

// Kind returns KindCheck.
func (c *WindowsVersionCheck) Kind() StepKind { return KindCheck }

// Run reads the OS version string and compares its build number against
// the configured minimum.
func (c *WindowsVersionCheck) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: c.Name()}
	res, err := wincmd.Powershell(ctx.Cmd, `(Get-CimInstance -Class Win32_OperatingSystem).Version`)
	if err != nil || !res.Ok() {
		r.Status = StatusError
		r.Message = fmt.Sprintf("could not read Windows version: %s", runErr(res, err))
		return r
	}

	version := strings.TrimSpace(res.Stdout)
	r.Output = fmt.Sprintf("Windows version: %s", version)

	build, ok := parseBuildNumber(version)
	if !ok {
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("could not parse build number from %q", version)
		return r
	}

	min := ctx.Cfg.Windows.MinBuild
	r.Details = []string{fmt.Sprintf("build number: %d, configured minimum: %d", build, min)}
	if build >= min {
		r.Status = StatusOK
		r.Message = fmt.Sprintf("build %d meets minimum %d", build, min)
		return r
	}
	r.Status = StatusWarning
	r.Message = fmt.Sprintf("build %d is below minimum %d", build, min)
	r.Details = append(r.Details,
		"This tool targets newer Windows releases; detection may also be wrong.",
		"If the build number looks incorrect, ignore this warning.")
	return r
}

// CanFix returns false.
func (c *WindowsVersionCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *WindowsVersionCheck) Fix(_ *RunContext) error { return nil }

// parseBuildNumber extracts the build number from a dotted version string
// like "10.0.26100", taking the last component. Reports false when the
// string does not parse.
func parseBuildNumber(version string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// --- Service checks ---

// ServiceCheck verifies a Windows service is running via sc query.
// Fixable: Fix starts the service with net start.
type ServiceCheck struct {
	service string
}

// NewServiceCheck creates a check for the named service.
func NewServiceCheck(service string) *ServiceCheck {
	return &ServiceCheck{service: service}
}

// Name returns the check identifier.
func (c *ServiceCheck) Name() string { return "service-" + c.service }

// Title returns the section header.
func (c *ServiceCheck) Title() string {
	return fmt.Sprintf("Checking Audio Service %s", c.service)
}

// Kind returns KindCheck.
func (c *ServiceCheck) Kind() StepKind { return KindCheck }

// Run queries the service control manager and inspects the STATE line.
func (c *ServiceCheck) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: c.Name()}
	res, err := ctx.Cmd.Run("sc", "query", c.service)
	if err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("sc query %s: %v", c.service, err)
		return r
	}

	state, found := parseServiceState(res.Stdout)
	if !found {
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("service %s not found", c.service)
		return r
	}
	r.Output = fmt.Sprintf("Service: %s\n  Status: %s", c.service, state)
	if strings.Contains(state, "RUNNING") {
		r.Status = StatusOK
		r.Message = fmt.Sprintf("%s is running", c.service)
		return r
	}
	r.Status = StatusWarning
	r.Message = fmt.Sprintf("%s is not running", c.service)
	r.FixHint = fmt.Sprintf("start it with: net start %s", c.service)
	return r
}

// CanFix returns true — a stopped service can be started.
func (c *ServiceCheck) CanFix() bool { return true }

// Fix starts the service.
func (c *ServiceCheck) Fix(ctx *RunContext) error {
	res, err := ctx.Cmd.Run("net", "start", c.service)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("net start %s exited %d: %s", c.service, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return nil
}

// parseServiceState extracts the value of the STATE line from sc query
// output. Reports false when no STATE line is present (unknown service).
func parseServiceState(out string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "STATE") {
			continue
		}
		if _, state, ok := strings.Cut(line, ":"); ok {
			return strings.TrimSpace(state), true
		}
	}
	return "", false
}

// --- Device checks ---

// DeviceListCheck enumerates sound devices, falling back to the legacy WMI
// query when the CIM query returns nothing.
type DeviceListCheck struct{}

// Name returns the check identifier.
func (c *DeviceListCheck) Name() string { return "audio-devices" }

// Title returns the section header.
func (c *DeviceListCheck) Title() string { return "Listing Audio Devices" }

// Kind returns KindCheck.
func (c *DeviceListCheck) Kind() StepKind { return KindCheck }

// Run lists sound devices.
func (c *DeviceListCheck) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: c.Name()}
	res, err := wincmd.Powershell(ctx.Cmd,
		`Get-CimInstance -Class Win32_SoundDevice | Select-Object Name, Status | Format-List`)
	if err == nil && res.Ok() {
		r.Status = StatusOK
		r.Message = "found audio devices"
		r.Output = res.Stdout
		return r
	}

	// Older hosts lack the CIM cmdlets; retry with the WMI equivalent.
	res2, err2 := wincmd.Powershell(ctx.Cmd,
		`Get-WmiObject -Class Win32_SoundDevice | Format-List Name, Status`)
	if err2 == nil && res2.Ok() {
		r.Status = StatusOK
		r.Message = "found audio devices (WMI fallback)"
		r.Output = res2.Stdout
		return r
	}

	r.Status = StatusWarning
	r.Message = "no audio devices found or query failed"
	r.Details = []string{
		fmt.Sprintf("CIM query: %s", runErr(res, err)),
		fmt.Sprintf("WMI query: %s", runErr(res2, err2)),
	}
	return r
}

// CanFix returns false.
func (c *DeviceListCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *DeviceListCheck) Fix(_ *RunContext) error { return nil }

// DeviceStatusCheck reports per-device StatusInfo. There is no reliable
// scripted way to read the mute state, so this is the closest proxy; the
// result points the user at the volume icon otherwise.
type DeviceStatusCheck struct{}

// Name returns the check identifier.
func (c *DeviceStatusCheck) Name() string { return "device-status" }

// Title returns the section header.
func (c *DeviceStatusCheck) Title() string { return "Checking Volume Settings" }

// Kind returns KindCheck.
func (c *DeviceStatusCheck) Kind() StepKind { return KindCheck }

// Run queries device StatusInfo.
func (c *DeviceStatusCheck) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: c.Name()}
	res, err := wincmd.Powershell(ctx.Cmd,
		`Get-WmiObject -Class Win32_SoundDevice | Format-List StatusInfo`)
	if err != nil || !res.Ok() {
		r.Status = StatusWarning
		r.Message = "could not get volume/mute status"
		r.Details = []string{
			"Check manually whether the system is muted via the volume icon in the taskbar.",
		}
		return r
	}
	r.Status = StatusOK
	r.Message = "audio device status retrieved"
	r.Output = res.Stdout
	return r
}

// CanFix returns false.
func (c *DeviceStatusCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *DeviceStatusCheck) Fix(_ *RunContext) error { return nil }

// DefaultDeviceCheck reports the first sound device with Status OK.
type DefaultDeviceCheck struct{}

// Name returns the check identifier.
func (c *DefaultDeviceCheck) Name() string { return "default-device" }

// Title returns the section header.
func (c *DefaultDeviceCheck) Title() string { return "Checking Default Audio Device" }

// Kind returns KindCheck.
func (c *DefaultDeviceCheck) Kind() StepKind { return KindCheck }

// Run queries for the first healthy device.
func (c *DefaultDeviceCheck) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: c.Name()}
	res, err := wincmd.Powershell(ctx.Cmd,
		`Get-WmiObject -Class Win32_SoundDevice | Where-Object {$_.Status -eq 'OK'} | Select-Object -First 1 Name`)
	if err != nil || !res.Ok() {
		r.Status = StatusWarning
		r.Message = "could not determine default audio device"
		r.Details = []string{"Check this manually in Sound settings."}
		return r
	}
	r.Status = StatusOK
	r.Message = fmt.Sprintf("default audio device: %s", lastNonEmptyLine(res.Stdout))
	r.Output = res.Stdout
	return r
}

// CanFix returns false.
func (c *DefaultDeviceCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *DefaultDeviceCheck) Fix(_ *RunContext) error { return nil }

// --- Driver checks ---

// DriverStatusCheck queries PnP for the configured device pattern and
// records the discovered instance ID in the RunContext for the event
// check and driver restart.
type DriverStatusCheck struct{}

// Name returns the check identifier.
func (c *DriverStatusCheck) Name() string { return "driver-status" }

// Title returns the section header.
func (c *DriverStatusCheck) Title() string { return "Checking Audio Driver Status" }

// Kind returns KindCheck.
func (c *DriverStatusCheck) Kind() StepKind { return KindCheck }

// Run queries the PnP device and extracts its instance ID.
func (c *DriverStatusCheck) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: c.Name()}
	script := fmt.Sprintf(
		`Get-PnpDevice | Where-Object {$_.FriendlyName -like '%s'} | Select-Object Status, FriendlyName, InstanceId, ProblemCode, Service | Format-List`,
		ctx.Cfg.Driver.Match)
	res, err := wincmd.Powershell(ctx.Cmd, script)
	if err != nil || !res.Ok() {
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("could not retrieve driver information for %s", ctx.Cfg.Driver.Match)
		r.Details = []string{runErr(res, err)}
		return r
	}

	r.Output = res.Stdout
	id := parseInstanceID(res.Stdout)
	if id == "" {
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("no device instance ID found for %s", ctx.Cfg.Driver.Match)
		return r
	}
	ctx.InstanceID = id
	r.Status = StatusOK
	r.Message = fmt.Sprintf("device instance ID: %s", id)
	return r
}

// CanFix returns false — remediation is a separate menu action.
func (c *DriverStatusCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *DriverStatusCheck) Fix(_ *RunContext) error { return nil }

// parseInstanceID extracts the InstanceId value from Format-List output.
// Instance IDs contain colons only after the property separator, so the
// split is on the first colon of the matching line.
func parseInstanceID(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "InstanceId") {
			continue
		}
		if _, val, ok := strings.Cut(line, ":"); ok {
			return strings.TrimSpace(val)
		}
	}
	return ""
}

// DriverEventsCheck reads recent driver events from the System log. When
// the driver status check discovered an instance ID the query is scoped
// to that device; otherwise it falls back to the generic audio providers.
type DriverEventsCheck struct{}

// Name returns the check identifier.
func (c *DriverEventsCheck) Name() string { return "driver-events" }

// Title returns the section header.
func (c *DriverEventsCheck) Title() string { return "Checking Audio Driver Events" }

// Kind returns KindCheck.
func (c *DriverEventsCheck) Kind() StepKind { return KindCheck }

// Run queries the event log.
func (c *DriverEventsCheck) Run(ctx *RunContext) *StepResult {
	r := &StepResult{Name: c.Name()}
	limit := ctx.Cfg.Driver.EventLimit

	var script string
	if ctx.InstanceID != "" {
		script = fmt.Sprintf(
			`Get-WinEvent -FilterHashtable @{LogName='System'; ProviderName='Microsoft-Windows-DriverFrameworks-UserMode'} -MaxEvents %d | Where-Object {$_.Message -like '*%s*'} | Format-List TimeCreated, Message`,
			limit, ctx.InstanceID)
	} else {
		script = fmt.Sprintf(
			`Get-WinEvent -FilterHashtable @{LogName='System'; ProviderName=@('Microsoft-Windows-Audio', 'Microsoft-Windows-AudioEndpointBuilder')} -MaxEvents %d | Format-List TimeCreated, Message`,
			limit)
	}

	res, err := wincmd.Powershell(ctx.Cmd, script)
	if err != nil {
		r.Status = StatusError
		r.Message = fmt.Sprintf("event log query failed: %v", err)
		return r
	}
	if !res.Ok() {
		// An empty result set is normal on a healthy machine.
		if strings.Contains(res.Stderr, "No events were found") || res.ExitCode == 0 {
			r.Status = StatusOK
			r.Message = "no relevant audio driver events found"
			return r
		}
		r.Status = StatusWarning
		r.Message = "event log query returned no output"
		r.Details = []string{strings.TrimSpace(res.Stderr)}
		return r
	}
	r.Status = StatusOK
	r.Message = "recent audio driver events retrieved"
	r.Output = res.Stdout
	return r
}

// CanFix returns false.
func (c *DriverEventsCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *DriverEventsCheck) Fix(_ *RunContext) error { return nil }

// --- shared helpers ---

// runErr condenses a command result and invocation error into one line
// for detail output.
func runErr(res wincmd.Result, err error) string {
	switch {
	case err != nil:
		return err.Error()
	case strings.TrimSpace(res.Stderr) != "":
		return strings.TrimSpace(res.Stderr)
	case res.ExitCode != 0:
		return fmt.Sprintf("exit code %d", res.ExitCode)
	default:
		return "empty output"
	}
}

// lastNonEmptyLine returns the trailing data line of tabular PowerShell
// output (the value under the header row).
func lastNonEmptyLine(out string) string {
	lines := strings.Split(out, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return ""
}
