package forestry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathForLength(t *testing.T) {
	p := PathFor([]byte("apple"))
	require.Len(t, p, PathLength)
	for _, nib := range p {
		require.Less(t, nib, byte(16))
	}
}

func TestToNibblesHighFirst(t *testing.T) {
	got := toNibbles([]byte{0xab, 0xcd})
	require.Equal(t, Path{0xa, 0xb, 0xc, 0xd}, got)
}

func TestCommonPrefixLen(t *testing.T) {
	require.Equal(t, 3, commonPrefixLen([]byte{1, 2, 3, 4}, []byte{1, 2, 3, 9}))
	require.Equal(t, 0, commonPrefixLen([]byte{1}, []byte{2}))
	require.Equal(t, 2, commonPrefixLen([]byte{1, 2}, []byte{1, 2, 3}))
}

func TestPackNibblesEven(t *testing.T) {
	require.Equal(t, []byte{0x12, 0x34}, packNibbles([]byte{1, 2, 3, 4}))
}

func TestPackNibblesOdd(t *testing.T) {
	require.Equal(t, []byte{1, 0x23}, packNibbles([]byte{1, 2, 3}))
}

func TestPackNibblesEmpty(t *testing.T) {
	require.Empty(t, packNibbles(nil))
}

func TestFromNibblesRoundTrip(t *testing.T) {
	nibbles := toNibbles([]byte{0x01, 0x23, 0x45})
	require.Equal(t, []byte{0x01, 0x23, 0x45}, fromNibbles(nibbles))
}
