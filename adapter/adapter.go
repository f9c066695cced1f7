// Package adapter locates the LED controller among the attached serial and
// USB devices and opens a transport to it.
package adapter

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial/enumerator"

	"github.com/sergev/zoetrope/config"
	"github.com/sergev/zoetrope/transport"
)

var ErrNotFound = errors.New("no supported LED controller found")

// listPorts is replaced in tests
var listPorts = enumerator.GetDetailedPortsList

// Device is an opened controller
type Device struct {
	Name      string // registered controller name
	Port      string // serial port path or USB address
	Transport transport.Transport
}

func (d *Device) String() string {
	if d.Name == "" {
		return d.Port
	}
	return fmt.Sprintf("%s on %s", d.Name, d.Port)
}

// Port describes one enumerated serial port
type Port struct {
	Name         string
	VID          string
	PID          string
	SerialNumber string
	Product      string
	Controller   string // registered controller name, empty when unknown
}

// SerialFactory returns a Factory opening the enumerated port with opts
func SerialFactory(name string, opts transport.PortOptions) Factory {
	return func(portDetails *enumerator.PortDetails) (*Device, error) {
		if portDetails == nil {
			return nil, errors.New("serial controller needs a port")
		}
		t, err := transport.OpenSerial(portDetails.Name, opts)
		if err != nil {
			return nil, err
		}
		return &Device{Name: name, Port: portDetails.Name, Transport: t}, nil
	}
}

// USBFactory returns a Factory opening the raw bulk interface described by opts
func USBFactory(name string, opts transport.USBOptions) Factory {
	return func(*enumerator.PortDetails) (*Device, error) {
		t, err := transport.OpenUSB(opts)
		if err != nil {
			return nil, err
		}
		return &Device{Name: name, Port: opts.String(), Transport: t}, nil
	}
}

// Configure registers the controllers listed in the configuration
func Configure(conf *config.Config) {
	for _, d := range conf.Devices {
		RegisterAdapter(d.Name, d.VID, d.PID, SerialFactory(d.Name, conf.Serial))
	}
	if conf.USB.Enabled() {
		RegisterUSBAdapter("USB "+conf.USB.String(), USBFactory("USB", conf.USB))
	}
}

// Open opens an explicitly named port. LoopbackPath selects the in-process
// echo device.
func Open(path string, opts transport.PortOptions) (*Device, error) {
	if path == transport.LoopbackPath {
		return &Device{Name: "loopback", Port: path, Transport: transport.NewLoopback()}, nil
	}
	t, err := transport.OpenSerial(path, opts)
	if err != nil {
		return nil, err
	}
	return &Device{Port: path, Transport: t}, nil
}

// Find opens the explicit port when given. Otherwise it tries every
// enumerated serial port with a registered VID/PID, then the USB-only
// controllers.
func Find(explicit string, opts transport.PortOptions) (*Device, error) {
	if explicit != "" {
		return Open(explicit, opts)
	}

	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	for _, port := range ports {
		vid, pid, ok := parseIDs(port)
		if !ok {
			continue
		}
		info, ok := lookup(vid, pid)
		if !ok {
			continue
		}
		dev, err := info.Factory(port)
		if err != nil {
			log.Debug().Err(err).Str("port", port.Name).Msg("controller did not open")
			continue // Try next port
		}
		log.Debug().Str("port", dev.Port).Str("controller", info.Name).Msg("controller found")
		return dev, nil
	}

	for _, info := range registeredAdapters {
		if !info.usbOnly() {
			continue
		}
		dev, err := info.Factory(nil)
		if err != nil {
			log.Debug().Err(err).Str("controller", info.Name).Msg("controller did not open")
			continue
		}
		return dev, nil
	}

	return nil, ErrNotFound
}

// ListPorts returns every serial port, marking those of a registered controller
func ListPorts() ([]Port, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, port := range ports {
		p := Port{
			Name:         port.Name,
			VID:          port.VID,
			PID:          port.PID,
			SerialNumber: port.SerialNumber,
			Product:      port.Product,
		}
		if vid, pid, ok := parseIDs(port); ok {
			if info, ok := lookup(vid, pid); ok {
				p.Controller = info.Name
			}
		}
		result = append(result, p)
	}
	return result, nil
}

func parseIDs(port *enumerator.PortDetails) (vid, pid uint16, ok bool) {
	if !port.IsUSB {
		return 0, 0, false
	}
	v, err := strconv.ParseUint(port.VID, 16, 16)
	if err != nil {
		return 0, 0, false
	}
	p, err := strconv.ParseUint(port.PID, 16, 16)
	if err != nil {
		return 0, 0, false
	}
	return uint16(v), uint16(p), true
}
