// Package npyappend writes numpy *.npy files one row at a time, when the
// number of rows is not known until the last one has been written.
//
// The file starts with a fixed 128-byte header that claims zero rows. Rows
// of little-endian float32 values are appended behind it, and Close seeks
// back and rewrites the header with the true row count. Because the header
// never changes length, the patch happens in place.
package npyappend

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"os"
)

// Layout of the header written by this package.
const (
	HeaderLen        = 128 // Total header bytes, including the trailing newline
	preheaderLen     = 10  // magic(6) + version(2) + descriptor length(2)
	MaxDescriptorLen = HeaderLen - preheaderLen - 1
	DType            = "<f4" // Little-endian, 4-byte float
	ItemSize         = 4
)

// magic string and format version 1.0
var headerPrefix = []byte{0x93, 'N', 'U', 'M', 'P', 'Y', 0x01, 0x00}

// Errors returned by the header codec and the Stream.
var (
	ErrHeaderOverflow = errors.New("npy descriptor does not fit in the fixed header")
	ErrNegativeShape  = errors.New("npy shape must not be negative")
	ErrRowLength      = errors.New("row length does not match column count")
	ErrClosed         = errors.New("npy stream already closed")
)

// ProblemLogger logs problems that cannot be returned to a caller, such as
// a stream dropped without being closed.
var ProblemLogger = log.New(os.Stderr, "", log.LstdFlags)

// Descriptor returns the header dictionary text for a rows x cols array.
func Descriptor(rows, cols int) string {
	return fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%d, %d)}", DType, rows, cols)
}

// EncodeHeader returns the 128-byte npy header for a rows x cols float32
// array in C order. The result depends only on its arguments.
func EncodeHeader(rows, cols int) ([]byte, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: (%d, %d)", ErrNegativeShape, rows, cols)
	}
	return packHeader(Descriptor(rows, cols))
}

// packHeader surrounds descr with the prefix, its length, space padding and
// the final newline.
func packHeader(descr string) ([]byte, error) {
	if len(descr) > MaxDescriptorLen {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrHeaderOverflow, len(descr), MaxDescriptorLen)
	}
	header := make([]byte, 0, HeaderLen)
	header = append(header, headerPrefix...)
	header = binary.LittleEndian.AppendUint16(header, uint16(len(descr)))
	header = append(header, descr...)

	// Pad header with spaces plus one newline (0x20 and 0x0a, respectively)
	for len(header) < HeaderLen-1 {
		header = append(header, 0x20)
	}
	header = append(header, 0x0a)
	return header, nil
}
