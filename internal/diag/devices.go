package diag

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/soundwell/audiodoc/internal/wincmd"
)

// Device is one enumerated sound device.
type Device struct {
	Name         string
	Status       string
	Manufacturer string
}

// deviceQuery asks for CSV so the output survives column truncation, which
// Format-Table applies to long device names.
const deviceQuery = `Get-CimInstance -Class Win32_SoundDevice | Select-Object Name, Status, Manufacturer | ConvertTo-Csv -NoTypeInformation`

// ListDevices enumerates sound devices through the command adapter.
func ListDevices(r wincmd.Runner) ([]Device, error) {
	res, err := wincmd.Powershell(r, deviceQuery)
	if err != nil {
		return nil, fmt.Errorf("querying sound devices: %w", err)
	}
	if !res.Ok() {
		return nil, fmt.Errorf("sound device query failed: %s", runErr(res, err))
	}
	return ParseDeviceCSV(res.Stdout)
}

// ParseDeviceCSV parses ConvertTo-Csv output into devices. The header row
// determines column positions so reordered Select-Object fields still parse.
func ParseDeviceCSV(out string) ([]Device, error) {
	rd := csv.NewReader(strings.NewReader(strings.TrimSpace(out)))
	rd.FieldsPerRecord = -1 // PowerShell pads trailing empties inconsistently
	records, err := rd.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing device CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	col := map[string]int{}
	for i, h := range records[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var devices []Device
	for _, rec := range records[1:] {
		d := Device{
			Name:         field(rec, "name"),
			Status:       field(rec, "status"),
			Manufacturer: field(rec, "manufacturer"),
		}
		if d.Name == "" {
			continue
		}
		devices = append(devices, d)
	}
	return devices, nil
}
