package npyappend

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderLength(t *testing.T) {
	var tests = []struct {
		rows, cols int
	}{
		{0, 0},
		{1, 1},
		{100, 100},
		{1_000_000, 100},
		{0, 5},
		{math.MaxInt32, math.MaxInt32},
		{math.MaxInt, math.MaxInt},
	}
	for _, test := range tests {
		h, err := EncodeHeader(test.rows, test.cols)
		require.NoError(t, err)
		if len(h) != HeaderLen {
			t.Errorf("len(EncodeHeader(%d, %d)) = %d, want %d", test.rows, test.cols, len(h), HeaderLen)
		}
	}
}

func TestHeaderLayout(t *testing.T) {
	h, err := EncodeHeader(2, 3)
	require.NoError(t, err)

	assert.Equal(t, []byte("\x93NUMPY"), h[:6])
	assert.Equal(t, []byte{1, 0}, h[6:8])
	descr := "{'descr': '<f4', 'fortran_order': False, 'shape': (2, 3)}"
	dlen := int(binary.LittleEndian.Uint16(h[8:10]))
	assert.Equal(t, len(descr), dlen)
	assert.Equal(t, descr, string(h[10:10+dlen]))
	assert.Equal(t, strings.Repeat(" ", HeaderLen-1-10-dlen), string(h[10+dlen:HeaderLen-1]))
	assert.Equal(t, byte('\n'), h[HeaderLen-1])
}

func TestHeaderDeterministic(t *testing.T) {
	a, err := EncodeHeader(12345, 67)
	require.NoError(t, err)
	b, err := EncodeHeader(12345, 67)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := EncodeHeader(12346, 67)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestHeaderErrors(t *testing.T) {
	_, err := EncodeHeader(-1, 3)
	assert.ErrorIs(t, err, ErrNegativeShape)
	_, err = EncodeHeader(3, -1)
	assert.ErrorIs(t, err, ErrNegativeShape)

	// Largest descriptor that still fits, then one byte too many.
	h, err := packHeader(strings.Repeat("x", MaxDescriptorLen))
	require.NoError(t, err)
	assert.Len(t, h, HeaderLen)
	assert.Equal(t, byte('\n'), h[HeaderLen-1])
	_, err = packHeader(strings.Repeat("x", MaxDescriptorLen+1))
	assert.ErrorIs(t, err, ErrHeaderOverflow)
}

func TestHeaderParsesWithNpyio(t *testing.T) {
	h, err := EncodeHeader(1_000_000, 100)
	require.NoError(t, err)
	rows, cols, err := ReadShape(bytes.NewReader(h))
	require.NoError(t, err)
	assert.Equal(t, 1_000_000, rows)
	assert.Equal(t, 100, cols)
}
