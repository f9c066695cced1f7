package adapter

import "go.bug.st/serial/enumerator"

// Factory opens a device on an enumerated serial port. USB-only factories
// receive nil port details.
type Factory func(portDetails *enumerator.PortDetails) (*Device, error)

// Info contains information about a registered controller type
type Info struct {
	Name      string
	VendorID  uint16
	ProductID uint16
	Factory   Factory
}

// usbOnly reports whether the entry bypasses serial port enumeration
func (info Info) usbOnly() bool {
	return info.VendorID == 0 && info.ProductID == 0
}

var registeredAdapters []Info

// RegisterAdapter registers a controller factory with its VID/PID
func RegisterAdapter(name string, vendorID, productID uint16, factory Factory) {
	registeredAdapters = append(registeredAdapters, Info{
		Name:      name,
		VendorID:  vendorID,
		ProductID: productID,
		Factory:   factory,
	})
}

// RegisterUSBAdapter registers a controller that doesn't use serial ports
func RegisterUSBAdapter(name string, factory Factory) {
	registeredAdapters = append(registeredAdapters, Info{
		Name:    name,
		Factory: factory,
	})
}

// Registered returns a copy of the registry in registration order
func Registered() []Info {
	return append([]Info(nil), registeredAdapters...)
}

// Reset forgets every registered controller
func Reset() {
	registeredAdapters = nil
}

// lookup returns the serial controller registered for vid:pid
func lookup(vid, pid uint16) (Info, bool) {
	for _, info := range registeredAdapters {
		if info.usbOnly() {
			continue
		}
		if info.VendorID == vid && info.ProductID == pid {
			return info, true
		}
	}
	return Info{}, false
}
