package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// serialReadTimeout bounds each background read so Close returns promptly
const serialReadTimeout = 50 * time.Millisecond

// OpenSerial opens the serial port at path and wraps it for polling.
// Stale input left in the driver is discarded.
func OpenSerial(path string, opts PortOptions) (*Buffered, error) {
	mode, err := opts.SerialMode()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", path, err)
	}
	if err := port.SetReadTimeout(serialReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", path, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to flush %s: %w", path, err)
	}

	return NewBuffered(port), nil
}
