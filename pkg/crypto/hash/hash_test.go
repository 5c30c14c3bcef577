package hash

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSum256Deterministic(t *testing.T) {
	a := Sum256([]byte("apple"))
	b := Sum256([]byte("apple"))
	require.Equal(t, a, b)
	require.NotEqual(t, a, Sum256([]byte("apricot")))
}

func TestSum256ConcatMatchesManualConcat(t *testing.T) {
	x := []byte{0x01, 0x02}
	y := []byte{0x03, 0x04, 0x05}
	got := Sum256Concat(x, y)
	want := Sum256(append(append([]byte{}, x...), y...))
	require.Equal(t, want, got)
}

func TestSum256ConcatNilIsZero(t *testing.T) {
	got := Sum256Concat(nil, []byte("x"))
	want := Sum256(append(append([]byte{}, Zero[:]...), []byte("x")...))
	require.Equal(t, want, got)
}

func TestDigestStringRoundTrip(t *testing.T) {
	d := Sum256([]byte("value"))
	require.Len(t, d.String(), Size*2)
	require.Equal(t, d.Bytes(), FromBytes(d.Bytes()).Bytes())
	back, err := FromHexString(d.String())
	require.NoError(t, err)
	require.Equal(t, d, back)
}

func TestDigestIsZero(t *testing.T) {
	require.True(t, Zero.IsZero())
	require.False(t, Sum256([]byte("x")).IsZero())
}

func TestFromBytesPanicsOnBadLength(t *testing.T) {
	require.Panics(t, func() { FromBytes(make([]byte, 10)) })
}
