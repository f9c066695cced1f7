// Package ledmap translates the physical wiring of an LED strip array into
// the address order expected by the animation controller.
package ledmap

import (
	"errors"
	"fmt"
	"math"
)

// NoExtension marks a geometry without an extension strip
const NoExtension = -1

// MaxAddress is the largest LED address the controller can take
const MaxAddress = math.MaxInt32

var (
	ErrInvalidGeometry = errors.New("invalid strip geometry")
	ErrInvalidSegment  = errors.New("invalid logical segment")
	ErrUnpartitionable = errors.New("address sequence cannot be split into loops")
)

// Geometry describes the strip array shared by all wiring rows
type Geometry struct {
	LedsPerStrip   int // LEDs on every physical segment
	ExtensionStrip int // logical index where an extra strip is spliced in, or NoExtension
	Loops          int // number of equal output partitions
}

// Validate checks the strip parameters used for addressing.
// The loop count is checked separately by PartitionLoops.
func (g Geometry) Validate() error {
	if g.LedsPerStrip <= 0 || g.LedsPerStrip > MaxAddress {
		return fmt.Errorf("%w: leds per strip %d", ErrInvalidGeometry, g.LedsPerStrip)
	}
	if g.ExtensionStrip < NoExtension {
		return fmt.Errorf("%w: extension strip %d", ErrInvalidGeometry, g.ExtensionStrip)
	}
	return nil
}

// HasExtension reports whether an extension strip is spliced into the array
func (g Geometry) HasExtension() bool {
	return g.ExtensionStrip != NoExtension
}

// TranslateSegment returns the addresses of one strip segment in wiring order.
//
// The segment starts at LedsPerStrip*logical. Segments at or after the
// extension strip are shifted by one more strip length, leaving room for the
// extension hardware. Forward segments count up, reversed segments count down.
func TranslateSegment(g Geometry, forward bool, logical int) ([]int, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if logical < 0 || logical > MaxAddress {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSegment, logical)
	}

	n := int64(g.LedsPerStrip)
	start := n * int64(logical)
	if g.HasExtension() && logical >= g.ExtensionStrip {
		start += n
	}
	if start+n-1 > MaxAddress {
		return nil, fmt.Errorf("%w: segment %d ends past address %d", ErrInvalidSegment, logical, MaxAddress)
	}

	leds := make([]int, g.LedsPerStrip)
	for i := range leds {
		if forward {
			leds[i] = int(start) + i
		} else {
			leds[i] = int(start) + g.LedsPerStrip - 1 - i
		}
	}
	return leds, nil
}

// SegmentRange returns the address range of a segment without any extension
// strip offset: index*ledsPerSegment up to (index+1)*ledsPerSegment, mirrored
// for reversed segments.
func SegmentRange(ledsPerSegment int, forward bool, index int) ([]int, error) {
	return TranslateSegment(Geometry{LedsPerStrip: ledsPerSegment, ExtensionStrip: NoExtension}, forward, index)
}
