package wincmd

// powershellExe is invoked by name so PATH resolution applies; tests place
// a stub ahead of the real binary the same way.
const powershellExe = "powershell"

// Powershell runs a PowerShell one-liner through r and returns its result.
// -NoProfile keeps user profiles from polluting output; -NonInteractive
// ensures a misbehaving script errors out instead of blocking the run on a
// hidden prompt.
func Powershell(r Runner, script string) (Result, error) {
	return r.Run(powershellExe, "-NoProfile", "-NonInteractive", "-Command", script)
}
