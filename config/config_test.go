package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergev/zoetrope/ledmap"
	"github.com/sergev/zoetrope/transport"
)

func TestDefaultConfig(t *testing.T) {
	conf, err := Default()
	require.NoError(t, err)

	p, err := conf.Profile("")
	require.NoError(t, err)
	assert.Equal(t, "zoetrope", p.Name)
	assert.Equal(t, ledmap.Geometry{LedsPerStrip: 30, ExtensionStrip: 16, Loops: 4}, p.Geometry())
	assert.Equal(t, "led_order.csv", p.Wiring)
	assert.Equal(t, "addresses.txt", p.Output)

	tester, err := conf.Profile("tester")
	require.NoError(t, err)
	assert.False(t, tester.Geometry().HasExtension())

	assert.Equal(t, transport.PortOptions{BaudRate: 19200, DataBits: 8, StopBits: 1, Parity: "N"}, conf.Serial)
	assert.False(t, conf.USB.Enabled())
	assert.NotEmpty(t, conf.Devices)
	assert.Equal(t, uint16(0x2341), conf.Devices[0].VID)

	opts := conf.ChannelOptions()
	assert.Equal(t, 2*time.Second, opts.AckTimeout)
	assert.Equal(t, 10*time.Millisecond, opts.PollInterval)
}

func TestDefaultWiringMaps(t *testing.T) {
	conf, err := Default()
	require.NoError(t, err)
	p, err := conf.Profile("")
	require.NoError(t, err)

	rows, err := ledmap.ParseRows(bytes.NewReader(DefaultWiring()))
	require.NoError(t, err)
	loops, err := ledmap.Map(p.Geometry(), rows)
	require.NoError(t, err)
	require.Len(t, loops, 4)
	for _, loop := range loops {
		assert.Len(t, loop, 180)
	}
	assert.Equal(t, 0, loops[0][0])

	groups, err := ledmap.ParseGroups(bytes.NewReader(DefaultWiring()))
	require.NoError(t, err)
	assert.Len(t, groups, 4)
}

func TestDefaultWiringIsCopied(t *testing.T) {
	a := DefaultWiring()
	a[0] = 'x'
	assert.NotEqual(t, a[0], DefaultWiring()[0])
}

func TestInitializeCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", ".zoetrope")

	conf, err := Initialize(path)
	require.NoError(t, err)
	assert.Equal(t, path, conf.Path)
	assert.Equal(t, "zoetrope", conf.Default)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, defaultConfigData, data)
}

func TestInitializeKeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".zoetrope")
	require.NoError(t, os.WriteFile(path, []byte(`
default = "bench"

[[profile]]
name = "bench"
leds_per_strip = 4
loops = 2

[protocol]
ack_timeout_ms = -1
`), 0644))

	conf, err := Initialize(path)
	require.NoError(t, err)
	p, err := conf.Profile("bench")
	require.NoError(t, err)
	assert.Equal(t, ledmap.Geometry{LedsPerStrip: 4, ExtensionStrip: ledmap.NoExtension, Loops: 2}, p.Geometry())

	// Omitted sections take their defaults
	assert.Equal(t, "19200 8N1", conf.Serial.String())
	assert.Equal(t, time.Duration(-1), conf.ChannelOptions().AckTimeout)
	assert.Equal(t, time.Duration(0), conf.ChannelOptions().PollInterval)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.ErrorContains(t, err, "failed to parse TOML config")
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"no default": `
[[profile]]
name = "a"
leds_per_strip = 1
loops = 1
`,
		"unknown default": `
default = "b"
[[profile]]
name = "a"
leds_per_strip = 1
loops = 1
`,
		"zero leds": `
default = "a"
[[profile]]
name = "a"
leds_per_strip = 0
loops = 1
`,
		"zero loops": `
default = "a"
[[profile]]
name = "a"
leds_per_strip = 30
loops = 0
`,
		"bad extension": `
default = "a"
[[profile]]
name = "a"
leds_per_strip = 30
extension_strip = -2
loops = 1
`,
		"duplicate profile": `
default = "a"
[[profile]]
name = "a"
leds_per_strip = 30
loops = 1
[[profile]]
name = "a"
leds_per_strip = 30
loops = 1
`,
		"bad parity": `
default = "a"
[[profile]]
name = "a"
leds_per_strip = 30
loops = 1
[serial]
parity = "mark"
`,
		"negative poll": `
default = "a"
[[profile]]
name = "a"
leds_per_strip = 30
loops = 1
[protocol]
poll_interval_ms = -5
`,
		"usb without endpoints": `
default = "a"
[[profile]]
name = "a"
leds_per_strip = 30
loops = 1
[usb]
vid = 0x16c0
pid = 0x0486
`,
		"misspelled key": `
default = "a"
[[profile]]
name = "a"
leds_per_strip = 30
loop = 1
loops = 1
`,
		"vid out of range": `
default = "a"
[[profile]]
name = "a"
leds_per_strip = 30
loops = 1
[[device]]
name = "x"
vid = 0x12345
pid = 1
`,
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(text))
			assert.Error(t, err)
		})
	}
}

func TestProfileNotFound(t *testing.T) {
	conf, err := Default()
	require.NoError(t, err)
	_, err = conf.Profile("nope")
	assert.ErrorContains(t, err, `profile "nope" not found`)
}
