package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gousb"
)

// usbReadTimeout bounds each bulk IN transfer
const usbReadTimeout = 50 * time.Millisecond

// USBOptions selects a raw vendor interface with one bulk endpoint pair
type USBOptions struct {
	VendorID    uint16 `toml:"vid"`
	ProductID   uint16 `toml:"pid"`
	Config      int    `toml:"config"` // 0 = active configuration
	Interface   int    `toml:"interface"`
	EndpointIn  int    `toml:"endpoint_in"`
	EndpointOut int    `toml:"endpoint_out"`
}

// Enabled reports whether a USB device is configured
func (o USBOptions) Enabled() bool {
	return o.VendorID != 0 || o.ProductID != 0
}

func (o USBOptions) String() string {
	return fmt.Sprintf("usb:%04x:%04x", o.VendorID, o.ProductID)
}

// usbPort exposes a pair of bulk endpoints as an io.ReadWriteCloser
type usbPort struct {
	ctx     *gousb.Context
	dev     *gousb.Device
	done    func()
	bulkIn  *gousb.InEndpoint
	bulkOut *gousb.OutEndpoint
}

// OpenUSB opens the first device matching the options, claims its interface
// and wraps the bulk endpoints for polling.
func OpenUSB(opts USBOptions) (*Buffered, error) {
	if !opts.Enabled() {
		return nil, errors.New("no USB device configured")
	}

	ctx := gousb.NewContext()

	// Compare as uint16 since DeviceDesc.Vendor/Product are gousb.ID
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return uint16(desc.Vendor) == opts.VendorID && uint16(desc.Product) == opts.ProductID
	})
	if err != nil && len(devs) == 0 {
		ctx.Close()
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}
	if len(devs) == 0 {
		ctx.Close()
		return nil, fmt.Errorf("USB device not found (VID=0x%04X PID=0x%04X)", opts.VendorID, opts.ProductID)
	}
	dev := devs[0]
	for _, extra := range devs[1:] {
		extra.Close()
	}
	dev.SetAutoDetach(true)

	cfgNum := opts.Config
	if cfgNum == 0 {
		cfgNum, err = dev.ActiveConfigNum()
		if err != nil {
			dev.Close()
			ctx.Close()
			return nil, fmt.Errorf("failed to get active configuration: %w", err)
		}
	}
	cfg, err := dev.Config(cfgNum)
	if err != nil {
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to get config %d: %w", cfgNum, err)
	}
	intf, err := cfg.Interface(opts.Interface, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to claim interface %d: %w", opts.Interface, err)
	}
	done := func() {
		intf.Close()
		cfg.Close()
	}

	bulkOut, err := intf.OutEndpoint(opts.EndpointOut)
	if err != nil {
		done()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to open bulk out endpoint 0x%02x: %w", opts.EndpointOut, err)
	}
	bulkIn, err := intf.InEndpoint(opts.EndpointIn)
	if err != nil {
		done()
		dev.Close()
		ctx.Close()
		return nil, fmt.Errorf("failed to open bulk in endpoint 0x%02x: %w", opts.EndpointIn, err)
	}

	return NewBuffered(&usbPort{
		ctx:     ctx,
		dev:     dev,
		done:    done,
		bulkIn:  bulkIn,
		bulkOut: bulkOut,
	}), nil
}

// Read waits at most usbReadTimeout for a bulk IN transfer.
// An expired transfer is not an error.
func (p *usbPort) Read(b []byte) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), usbReadTimeout)
	defer cancel()

	n, err := p.bulkIn.ReadContext(ctx, b)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, gousb.TransferCancelled) || errors.Is(err, gousb.TransferTimedOut)) {
		return n, nil
	}
	return n, err
}

func (p *usbPort) Write(b []byte) (int, error) {
	return p.bulkOut.Write(b)
}

func (p *usbPort) Close() error {
	p.done()
	err := p.dev.Close()
	if cerr := p.ctx.Close(); err == nil {
		err = cerr
	}
	return err
}
