package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog/log"

	"github.com/sergev/zoetrope/channel"
	"github.com/sergev/zoetrope/ledmap"
	"github.com/sergev/zoetrope/transport"
)

//go:embed zoetrope.toml
var defaultConfigData []byte

//go:embed led_order.csv
var defaultWiringData []byte

// Config represents the entire TOML configuration structure
type Config struct {
	Default  string                `toml:"default"`
	Profiles []Profile             `toml:"profile"`
	Serial   transport.PortOptions `toml:"serial"`
	Protocol Protocol              `toml:"protocol"`
	Devices  []Device              `toml:"device"`
	USB      transport.USBOptions  `toml:"usb"`

	// Path is the file the configuration was read from, empty for the
	// embedded default
	Path string `toml:"-"`
}

// Profile describes one strip array and its wiring table
type Profile struct {
	Name           string `toml:"name"`
	LedsPerStrip   int    `toml:"leds_per_strip"`
	ExtensionStrip *int   `toml:"extension_strip"` // nil means no extension strip
	Loops          int    `toml:"loops"`
	Wiring         string `toml:"wiring"`
	Output         string `toml:"output"`
}

// Protocol holds the command channel timing
type Protocol struct {
	AckTimeoutMS   int `toml:"ack_timeout_ms"`   // 0 = default, negative = wait forever
	PollIntervalMS int `toml:"poll_interval_ms"` // 0 = default
}

// Device is a controller recognized by its USB vendor and product ID
type Device struct {
	Name string `toml:"name"`
	VID  uint16 `toml:"vid"`
	PID  uint16 `toml:"pid"`
}

// DefaultPath determines the config file path based on the operating system
func DefaultPath() (string, error) {
	var configDir string
	var err error

	switch runtime.GOOS {
	case "windows":
		configDir, err = os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user config directory: %w", err)
		}
		configDir = filepath.Join(configDir, "zoetrope")
	default:
		configDir, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user home directory: %w", err)
		}
	}

	return filepath.Join(configDir, ".zoetrope"), nil
}

// Initialize loads and validates the configuration file.
// An empty path selects DefaultPath. If the file doesn't exist, it is
// created from the embedded default.
func Initialize(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory %s: %w", dir, err)
		}
		if err := os.WriteFile(path, defaultConfigData, 0644); err != nil {
			return nil, fmt.Errorf("failed to create default config file at %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("created default config")
	}

	return Load(path)
}

// Load parses and validates the named configuration file
func Load(path string) (*Config, error) {
	var conf Config
	md, err := toml.DecodeFile(path, &conf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML config at %s: %w", path, err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	conf.Path = path
	return &conf, nil
}

// Default returns the embedded default configuration
func Default() (*Config, error) {
	return Parse(defaultConfigData)
}

// Parse decodes and validates configuration text
func Parse(data []byte) (*Config, error) {
	var conf Config
	md, err := toml.Decode(string(data), &conf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}
	if err := checkUndecoded(md); err != nil {
		return nil, err
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// checkUndecoded rejects misspelled keys, which would otherwise be ignored
func checkUndecoded(md toml.MetaData) error {
	keys := md.Undecoded()
	if len(keys) == 0 {
		return nil
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	return fmt.Errorf("unknown keys: %s", strings.Join(names, ", "))
}

// Validate checks the default profile exists and all fields are in range.
// Serial options are normalized in place.
func (c *Config) Validate() error {
	if c.Default == "" {
		return errors.New("`default` key is missing or empty in config")
	}
	if _, err := c.Profile(c.Default); err != nil {
		return fmt.Errorf("default profile %q not found in profile array", c.Default)
	}

	seen := make(map[string]bool)
	for _, p := range c.Profiles {
		if p.Name == "" {
			return errors.New("profile without a name")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = true
		if err := p.Validate(); err != nil {
			return err
		}
	}

	serial, err := c.Serial.Normalize()
	if err != nil {
		return fmt.Errorf("invalid serial options: %w", err)
	}
	c.Serial = serial

	if c.Protocol.PollIntervalMS < 0 {
		return fmt.Errorf("invalid poll_interval_ms: %d (must not be negative)", c.Protocol.PollIntervalMS)
	}

	for _, d := range c.Devices {
		if d.VID == 0 && d.PID == 0 {
			return fmt.Errorf("device %q has no vid/pid", d.Name)
		}
	}
	if c.USB.Enabled() && (c.USB.EndpointIn == 0 || c.USB.EndpointOut == 0) {
		return fmt.Errorf("usb device %s needs endpoint_in and endpoint_out", c.USB)
	}
	return nil
}

// Profile returns the named profile; an empty name selects the default
func (c *Config) Profile(name string) (*Profile, error) {
	if name == "" {
		name = c.Default
	}
	for i := range c.Profiles {
		if c.Profiles[i].Name == name {
			return &c.Profiles[i], nil
		}
	}
	return nil, fmt.Errorf("profile %q not found in configuration", name)
}

// ChannelOptions converts the protocol timing for channel.New
func (c *Config) ChannelOptions() channel.Options {
	var opts channel.Options
	switch {
	case c.Protocol.AckTimeoutMS < 0:
		opts.AckTimeout = -1
	case c.Protocol.AckTimeoutMS > 0:
		opts.AckTimeout = time.Duration(c.Protocol.AckTimeoutMS) * time.Millisecond
	}
	opts.PollInterval = time.Duration(c.Protocol.PollIntervalMS) * time.Millisecond
	return opts
}

// Validate checks the profile fields
func (p *Profile) Validate() error {
	if p.LedsPerStrip <= 0 {
		return fmt.Errorf("profile %q has invalid leds_per_strip: %d (must be positive)", p.Name, p.LedsPerStrip)
	}
	if p.Loops <= 0 {
		return fmt.Errorf("profile %q has invalid loops: %d (must be positive)", p.Name, p.Loops)
	}
	if p.ExtensionStrip != nil && *p.ExtensionStrip < ledmap.NoExtension {
		return fmt.Errorf("profile %q has invalid extension_strip: %d (must be -1 or above)", p.Name, *p.ExtensionStrip)
	}
	return p.Geometry().Validate()
}

// Geometry returns the strip parameters of the profile
func (p *Profile) Geometry() ledmap.Geometry {
	g := ledmap.Geometry{
		LedsPerStrip:   p.LedsPerStrip,
		ExtensionStrip: ledmap.NoExtension,
		Loops:          p.Loops,
	}
	if p.ExtensionStrip != nil {
		g.ExtensionStrip = *p.ExtensionStrip
	}
	return g
}

// DefaultWiring returns the example wiring table shipped with the tool
func DefaultWiring() []byte {
	return append([]byte(nil), defaultWiringData...)
}
