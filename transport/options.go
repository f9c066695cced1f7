package transport

import (
	"fmt"
	"strings"

	"go.bug.st/serial"
)

// DefaultBaudRate is the speed the controller firmware listens at
const DefaultBaudRate = 19200

// PortOptions describes the serial connection parameters used when opening a
// serial port. Zero values are replaced with 19200 8N1.
type PortOptions struct {
	BaudRate int    `toml:"baud_rate"`
	DataBits int    `toml:"data_bits"`
	StopBits int    `toml:"stop_bits"`
	Parity   string `toml:"parity"`
}

// parities maps the accepted parity spellings to their one-letter form
var parities = map[string]string{
	"": "N", "N": "N", "NONE": "N",
	"E": "E", "EVEN": "E",
	"O": "O", "ODD": "O",
}

var serialParity = map[string]serial.Parity{
	"N": serial.NoParity,
	"E": serial.EvenParity,
	"O": serial.OddParity,
}

// Normalize fills unset fields with 19200 8N1 and checks that the result
// is a frame format the UART can produce.
func (o PortOptions) Normalize() (PortOptions, error) {
	if o.BaudRate <= 0 {
		o.BaudRate = DefaultBaudRate
	}
	if o.DataBits == 0 {
		o.DataBits = 8
	}
	if o.StopBits == 0 {
		o.StopBits = 1
	}
	parity, ok := parities[strings.ToUpper(strings.TrimSpace(o.Parity))]
	switch {
	case o.DataBits < 5 || o.DataBits > 8:
		return o, fmt.Errorf("invalid data bits %d: must be 5..8", o.DataBits)
	case o.StopBits > 2 || o.StopBits < 1:
		return o, fmt.Errorf("invalid stop bits %d: must be 1 or 2", o.StopBits)
	case !ok:
		return o, fmt.Errorf("invalid parity %q: must be none, even or odd", o.Parity)
	}
	o.Parity = parity
	return o, nil
}

func (o PortOptions) String() string {
	opts, err := o.Normalize()
	if err != nil {
		return fmt.Sprintf("invalid (%v)", err)
	}
	return fmt.Sprintf("%d %d%s%d", opts.BaudRate, opts.DataBits, opts.Parity, opts.StopBits)
}

// SerialMode converts the options into the serial.Mode used to open a port
func (o PortOptions) SerialMode() (*serial.Mode, error) {
	opts, err := o.Normalize()
	if err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: opts.BaudRate,
		DataBits: opts.DataBits,
		Parity:   serialParity[opts.Parity],
		StopBits: serial.OneStopBit,
	}
	if opts.StopBits == 2 {
		mode.StopBits = serial.TwoStopBits
	}
	return mode, nil
}
