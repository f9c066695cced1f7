package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildFrameDebugSegment(t *testing.T) {
	f, err := BuildFrame(DebugSegment, []int{5})
	require.NoError(t, err)
	assert.Equal(t, Frame{0, 5, 0, 0, 0, 0, 0, 0}, f)
	assert.Equal(t, DebugSegment, f.Opcode())
	assert.Equal(t, "0005000000000000", f.String())

	g, err := DebugSegmentFrame(5)
	require.NoError(t, err)
	assert.Equal(t, f, g)
}

func TestBuildFrameFull(t *testing.T) {
	f, err := BuildFrame(AnimationMode, []int{1, 2, 3, 4, 5, 6, 255})
	require.NoError(t, err)
	assert.Equal(t, Frame{1, 1, 2, 3, 4, 5, 6, 255}, f)
}

func TestBuildFrameNoArguments(t *testing.T) {
	f, err := BuildFrame(AnimationMode, nil)
	require.NoError(t, err)
	assert.Equal(t, Frame{1}, f)
}

func TestBuildFrameOverflow(t *testing.T) {
	_, err := BuildFrame(AnimationMode, make([]int, PadSize))
	assert.ErrorIs(t, err, ErrFrameOverflow)

	_, err = AnimationModeFrame(make([]byte, PadSize))
	assert.ErrorIs(t, err, ErrFrameOverflow)
}

func TestBuildFrameArgumentRange(t *testing.T) {
	_, err := BuildFrame(DebugSegment, []int{256})
	assert.ErrorIs(t, err, ErrArgumentRange)

	_, err = BuildFrame(DebugSegment, []int{-1})
	assert.ErrorIs(t, err, ErrArgumentRange)

	_, err = DebugSegmentFrame(300)
	assert.ErrorIs(t, err, ErrArgumentRange)
}

func TestAnimationModeFrame(t *testing.T) {
	f, err := AnimationModeFrame([]byte{3, 0xaa})
	require.NoError(t, err)
	assert.Equal(t, Frame{1, 3, 0xaa, 0, 0, 0, 0, 0}, f)
}

func TestOpcodeString(t *testing.T) {
	assert.Equal(t, "DEBUG_SEGMENT", DebugSegment.String())
	assert.Equal(t, "ANIMATION_MODE", AnimationMode.String())
	assert.Equal(t, "OPCODE_0x07", Opcode(7).String())
}
