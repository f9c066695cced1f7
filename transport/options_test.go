package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial"
)

func TestPortOptionsNormalizeDefaults(t *testing.T) {
	opts, err := PortOptions{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, PortOptions{BaudRate: 19200, DataBits: 8, StopBits: 1, Parity: "N"}, opts)
	assert.Equal(t, "19200 8N1", PortOptions{}.String())
}

func TestPortOptionsNormalizeParity(t *testing.T) {
	for input, want := range map[string]string{
		"none": "N", " even ": "E", "o": "O", "ODD": "O",
	} {
		opts, err := PortOptions{Parity: input}.Normalize()
		require.NoError(t, err, input)
		assert.Equal(t, want, opts.Parity, input)
	}
}

func TestPortOptionsNormalizeRejects(t *testing.T) {
	for _, opts := range []PortOptions{
		{DataBits: 9},
		{DataBits: 4},
		{StopBits: 3},
		{StopBits: -1},
		{Parity: "mark"},
	} {
		_, err := opts.Normalize()
		assert.Error(t, err, "%+v", opts)
	}
}

func TestPortOptionsString(t *testing.T) {
	assert.Equal(t, "9600 7E2", PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "even"}.String())
	assert.Equal(t, "19200 5O1", PortOptions{DataBits: 5, Parity: " odd"}.String())
	assert.Contains(t, PortOptions{StopBits: -1}.String(), "invalid stop bits -1")
}

func TestPortOptionsSerialMode(t *testing.T) {
	mode, err := PortOptions{BaudRate: 115200, StopBits: 2, Parity: "E"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.EvenParity,
		StopBits: serial.TwoStopBits,
	}, mode)

	mode, err = PortOptions{DataBits: 7, Parity: "odd"}.SerialMode()
	require.NoError(t, err)
	assert.Equal(t, &serial.Mode{
		BaudRate: 19200,
		DataBits: 7,
		Parity:   serial.OddParity,
		StopBits: serial.OneStopBit,
	}, mode)

	_, err = PortOptions{Parity: "x"}.SerialMode()
	assert.Error(t, err)
}

func TestUSBOptions(t *testing.T) {
	assert.False(t, USBOptions{}.Enabled())
	opts := USBOptions{VendorID: 0x16c0, ProductID: 0x0486}
	assert.True(t, opts.Enabled())
	assert.Equal(t, "usb:16c0:0486", opts.String())

	_, err := OpenUSB(USBOptions{})
	assert.Error(t, err)
}
