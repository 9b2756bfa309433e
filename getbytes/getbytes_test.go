package getbytes

import (
	"encoding/binary"
	"encoding/hex"
	"math"
	"testing"
)

func TestFromGetBytes(t *testing.T) {
	encodedStr := hex.EncodeToString(AppendFloat32LE(nil, []float32{1, 2}))
	if expectStr := "0000803f00000040"; encodedStr != expectStr {
		t.Errorf("want %v, have %v", expectStr, encodedStr)
	}
	encodedStr = hex.EncodeToString(FromFloat32(-2))
	if expectStr := "000000c0"; encodedStr != expectStr {
		t.Errorf("want %v, have %v", expectStr, encodedStr)
	}
	if len(FromSliceFloat32([]float32{})) != 0 {
		t.Error("wrong length for empty slice")
	}
	if HostIsLittleEndian {
		encodedStr = hex.EncodeToString(FromSliceFloat32([]float32{1, 2}))
		if expectStr := "0000803f00000040"; encodedStr != expectStr {
			t.Errorf("want %v, have %v", expectStr, encodedStr)
		}
	}
}

func TestAppendReusesBuffer(t *testing.T) {
	buf := make([]byte, 0, 64)
	row := []float32{0, 1.5, -3, float32(math.Inf(1))}
	for i := 0; i < 3; i++ {
		buf = AppendFloat32LE(buf[:0], row)
		if len(buf) != 4*len(row) {
			t.Fatalf("len(buf)=%d, want %d", len(buf), 4*len(row))
		}
		for j, want := range row {
			have := math.Float32frombits(binary.LittleEndian.Uint32(buf[4*j:]))
			if have != want {
				t.Errorf("element %d = %v, want %v", j, have, want)
			}
		}
	}
	if cap(buf) != 64 {
		t.Errorf("buffer was reallocated, cap=%d", cap(buf))
	}
	// The appended bytes must not alias the source row.
	row[0] = 99
	if v := math.Float32frombits(binary.LittleEndian.Uint32(buf)); v != 0 {
		t.Errorf("encoded row aliases the source, have %v", v)
	}
}
