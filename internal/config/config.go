// Package config handles loading and parsing audiodoc.toml configuration files.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/soundwell/audiodoc/internal/fsys"
)

// DefaultFileName is the config file audiodoc looks for in the working
// directory when --config is not given.
const DefaultFileName = "audiodoc.toml"

// Config is the top-level configuration for audiodoc.
type Config struct {
	Windows  Windows  `toml:"windows"`
	Services Services `toml:"services"`
	Driver   Driver   `toml:"driver"`
	Tone     Tone     `toml:"tone"`
}

// Windows holds OS detection settings.
type Windows struct {
	// MinBuild is the build number at or above which the host is treated
	// as a supported Windows release. Windows 11 shipped as build 22000.
	// Kept as configuration because version schemes change.
	MinBuild int `toml:"min_build" jsonschema:"minimum=0"`
}

// Services holds Windows audio service settings.
type Services struct {
	// Audio lists the service names checked and restarted, in dependency
	// order. Stops run in this order, starts in reverse.
	Audio []string `toml:"audio"`
	// RestartDelaySeconds is the wait between stopping and starting.
	RestartDelaySeconds int `toml:"restart_delay_seconds" jsonschema:"minimum=0"`
}

// Driver holds audio driver diagnostic and remediation settings.
type Driver struct {
	// Match is the PnP friendly-name wildcard used to locate the device.
	Match string `toml:"match"`
	// SettleSeconds is the wait between disabling and re-enabling.
	SettleSeconds int `toml:"settle_seconds" jsonschema:"minimum=0"`
	// EventLimit caps how many event log entries are queried.
	EventLimit int `toml:"event_limit" jsonschema:"minimum=1"`
}

// Tone holds test tone playback settings.
type Tone struct {
	FrequencyHz int `toml:"frequency_hz" jsonschema:"minimum=37,maximum=32767"`
	DurationMS  int `toml:"duration_ms" jsonschema:"minimum=1"`
}

// Default returns the built-in configuration. Values mirror what the
// OS ships with: the two core audio services and the stock Realtek
// friendly-name pattern.
func Default() *Config {
	return &Config{
		Windows: Windows{MinBuild: 22000},
		Services: Services{
			Audio:               []string{"Audiosrv", "AudioEndpointBuilder"},
			RestartDelaySeconds: 3,
		},
		Driver: Driver{
			Match:         "*Realtek*Audio*",
			SettleSeconds: 5,
			EventLimit:    10,
		},
		Tone: Tone{FrequencyHz: 1000, DurationMS: 3000},
	}
}

// Marshal encodes a Config to TOML bytes.
func (c *Config) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads and parses a config file at the given path using the provided
// filesystem. Values present in the file override defaults; absent sections
// keep their default values. All file I/O goes through fs for testability.
func Load(fs fsys.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML data over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// LoadOrDefault loads the config at path, falling back to Default when the
// file does not exist. A file that exists but fails to parse is an error —
// silently ignoring a broken config would run remediation with the wrong
// service names.
func LoadOrDefault(fs fsys.FS, path string) (*Config, error) {
	if _, err := fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("checking config %q: %w", path, err)
	}
	return Load(fs, path)
}
