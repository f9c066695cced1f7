package channel

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// PadSize is the width of every command frame in bytes
const PadSize = 8

// Opcode is the first byte of a command frame
type Opcode byte

const (
	DebugSegment  Opcode = 0 // light a single wiring segment
	AnimationMode Opcode = 1 // switch the animation mode, payload is opaque
)

func (op Opcode) String() string {
	switch op {
	case DebugSegment:
		return "DEBUG_SEGMENT"
	case AnimationMode:
		return "ANIMATION_MODE"
	default:
		return fmt.Sprintf("OPCODE_0x%02X", byte(op))
	}
}

var (
	ErrFrameOverflow = errors.New("command does not fit in frame")
	ErrArgumentRange = errors.New("command argument out of byte range")
)

// Frame is one fixed-width command: opcode, arguments, zero padding
type Frame [PadSize]byte

// BuildFrame lays out a command frame. Every argument must fit in a byte and
// the opcode plus arguments must fit in PadSize bytes.
func BuildFrame(op Opcode, args []int) (Frame, error) {
	var f Frame
	if 1+len(args) > PadSize {
		return f, fmt.Errorf("%w: %s with %d arguments, max %d", ErrFrameOverflow, op, len(args), PadSize-1)
	}
	f[0] = byte(op)
	for i, arg := range args {
		if arg < 0 || arg > 0xff {
			return Frame{}, fmt.Errorf("%w: argument %d is %d", ErrArgumentRange, i, arg)
		}
		f[1+i] = byte(arg)
	}
	return f, nil
}

// DebugSegmentFrame builds the frame lighting one segment
func DebugSegmentFrame(segment int) (Frame, error) {
	return BuildFrame(DebugSegment, []int{segment})
}

// AnimationModeFrame builds an animation mode frame carrying payload as is
func AnimationModeFrame(payload []byte) (Frame, error) {
	return BuildFrame(AnimationMode, bytesToArgs(payload))
}

func bytesToArgs(b []byte) []int {
	args := make([]int, len(b))
	for i, v := range b {
		args[i] = int(v)
	}
	return args
}

// Opcode returns the opcode byte of the frame
func (f Frame) Opcode() Opcode {
	return Opcode(f[0])
}

// String returns the frame as hex, e.g. "0005000000000000"
func (f Frame) String() string {
	return hex.EncodeToString(f[:])
}
