package ledmap

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var zoetrope = Geometry{LedsPerStrip: 30, ExtensionStrip: 16, Loops: 4}

func TestTranslateSegmentForward(t *testing.T) {
	g := Geometry{LedsPerStrip: 4, ExtensionStrip: NoExtension, Loops: 1}

	leds, err := TranslateSegment(g, true, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, leds)

	leds, err = TranslateSegment(g, true, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{12, 13, 14, 15}, leds)
}

func TestTranslateSegmentReversed(t *testing.T) {
	g := Geometry{LedsPerStrip: 4, ExtensionStrip: NoExtension, Loops: 1}

	leds, err := TranslateSegment(g, false, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{7, 6, 5, 4}, leds)
}

// Reversing the direction must give the forward addresses in reverse order
func TestTranslateSegmentDirectionSymmetry(t *testing.T) {
	for _, g := range []Geometry{
		zoetrope,
		{LedsPerStrip: 1, ExtensionStrip: NoExtension},
		{LedsPerStrip: 7, ExtensionStrip: 0},
	} {
		for logical := 0; logical < 24; logical++ {
			fwd, err := TranslateSegment(g, true, logical)
			require.NoError(t, err)
			rev, err := TranslateSegment(g, false, logical)
			require.NoError(t, err)

			require.Len(t, fwd, g.LedsPerStrip)
			for _, addr := range fwd {
				assert.GreaterOrEqual(t, addr, 0)
			}
			slices.Reverse(rev)
			if diff := cmp.Diff(fwd, rev); diff != "" {
				t.Errorf("geometry %+v segment %d: reversed mismatch (-fwd +rev):\n%s", g, logical, diff)
			}
		}
	}
}

func TestTranslateSegmentExtensionStrip(t *testing.T) {
	before, err := TranslateSegment(zoetrope, true, 15)
	require.NoError(t, err)
	assert.Equal(t, 450, before[0])
	assert.Equal(t, 479, before[29])

	at, err := TranslateSegment(zoetrope, true, 16)
	require.NoError(t, err)
	assert.Equal(t, 510, at[0], "segment at the extension point must skip one strip")
	assert.Equal(t, 539, at[29])

	after, err := TranslateSegment(zoetrope, false, 17)
	require.NoError(t, err)
	assert.Equal(t, 569, after[0])
	assert.Equal(t, 540, after[29])
}

func TestTranslateSegmentExtensionAtZero(t *testing.T) {
	g := Geometry{LedsPerStrip: 4, ExtensionStrip: 0}
	leds, err := TranslateSegment(g, true, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6, 7}, leds)
}

func TestTranslateSegmentRejectsBadInput(t *testing.T) {
	_, err := TranslateSegment(zoetrope, true, -1)
	assert.ErrorIs(t, err, ErrInvalidSegment)

	_, err = TranslateSegment(zoetrope, true, MaxAddress)
	assert.ErrorIs(t, err, ErrInvalidSegment)

	_, err = TranslateSegment(Geometry{LedsPerStrip: 0}, true, 0)
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = TranslateSegment(Geometry{LedsPerStrip: 4, ExtensionStrip: -2}, true, 0)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

// Vectors of the range based generator: 4 LEDs per segment, no extension
func TestSegmentRange(t *testing.T) {
	tests := []struct {
		forward bool
		index   int
		want    []int
	}{
		{true, 0, []int{0, 1, 2, 3}},
		{true, 2, []int{8, 9, 10, 11}},
		{false, 0, []int{3, 2, 1, 0}},
		{false, 2, []int{11, 10, 9, 8}},
		{false, 5, []int{23, 22, 21, 20}},
	}
	for _, tt := range tests {
		got, err := SegmentRange(4, tt.forward, tt.index)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "forward=%v index=%d", tt.forward, tt.index)
	}
}

// SegmentRange and TranslateSegment agree whenever no extension is configured
func TestSegmentRangeMatchesTranslate(t *testing.T) {
	g := Geometry{LedsPerStrip: 30, ExtensionStrip: NoExtension}
	for index := 0; index < 40; index++ {
		for _, forward := range []bool{true, false} {
			a, err := SegmentRange(30, forward, index)
			require.NoError(t, err)
			b, err := TranslateSegment(g, forward, index)
			require.NoError(t, err)
			assert.Equal(t, b, a)
		}
	}
}
