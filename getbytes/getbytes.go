// Package getbytes converts float32 rows to little-endian []byte without
// going through binary.Write, which is far too slow per row.
package getbytes

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// HostIsLittleEndian is true when the in-memory layout of a float32 already
// matches the little-endian byte order of the npy '<f4' dtype.
var HostIsLittleEndian = hostLittleEndian()

func hostLittleEndian() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}

// FromSliceFloat32 convert a []float32 to []byte using unsafe. The result
// aliases d and uses the host byte order.
func FromSliceFloat32(d []float32) []byte {
	if len(d) == 0 {
		return []byte{}
	}
	outlength := uintptr(len(d)) * unsafe.Sizeof(d[0]) / unsafe.Sizeof(byte(0))
	return unsafe.Slice((*byte)(unsafe.Pointer(&d[0])), outlength)
}

// AppendFloat32LE appends the little-endian encoding of src to dst and
// returns the extended slice.
func AppendFloat32LE(dst []byte, src []float32) []byte {
	if HostIsLittleEndian {
		return append(dst, FromSliceFloat32(src)...)
	}
	for _, v := range src {
		dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(v))
	}
	return dst
}

// FromFloat32 converts a float32 to its 4 little-endian bytes
func FromFloat32(d float32) []byte {
	return AppendFloat32LE(make([]byte, 0, 4), []float32{d})
}
