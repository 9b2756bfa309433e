package npyappend

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sbinet/npyio"
)

// Errors returned when checking a finished file.
var (
	ErrNotStreamFile = errors.New("not a 2D little-endian float32 C-order npy file")
	ErrSizeMismatch  = errors.New("npy file size does not match its header")
)

// Info summarizes a finished npy file.
type Info struct {
	Path   string
	Major  byte
	Minor  byte
	Rows   int
	Cols   int
	Size   int64 // File size in bytes
	Header int64 // Bytes before the first row
}

// openHeader reads the fixed header from r and returns an npyio reader
// positioned at the first row, plus the shape.
//
// The length field of our header counts only the descriptor text, while
// npyio takes it to cover the padding and newline too. So npyio is handed
// a copy whose length field spans the whole rest of the header.
func openHeader(r io.Reader) (nr *npyio.Reader, header []byte, rows, cols int, err error) {
	header = make([]byte, HeaderLen)
	if _, err = io.ReadFull(r, header); err != nil {
		return nil, nil, 0, 0, fmt.Errorf("reading %d-byte npy header: %w", HeaderLen, err)
	}
	if !bytes.Equal(header[:len(headerPrefix)], headerPrefix) {
		return nil, nil, 0, 0, fmt.Errorf("%w: bad magic or version % x", ErrNotStreamFile, header[:len(headerPrefix)])
	}
	dlen := int(binary.LittleEndian.Uint16(header[len(headerPrefix):preheaderLen]))
	if dlen > MaxDescriptorLen {
		return nil, nil, 0, 0, fmt.Errorf("%w: descriptor length %d exceeds %d", ErrNotStreamFile, dlen, MaxDescriptorLen)
	}
	if header[HeaderLen-1] != '\n' {
		return nil, nil, 0, 0, fmt.Errorf("%w: header does not end in a newline", ErrNotStreamFile)
	}
	for _, b := range header[preheaderLen+dlen : HeaderLen-1] {
		if b != ' ' {
			return nil, nil, 0, 0, fmt.Errorf("%w: header padding is not all spaces", ErrNotStreamFile)
		}
	}

	framed := bytes.Clone(header)
	binary.LittleEndian.PutUint16(framed[len(headerPrefix):], HeaderLen-preheaderLen)
	nr, err = npyio.NewReader(io.MultiReader(bytes.NewReader(framed), r))
	if err != nil {
		return nil, nil, 0, 0, fmt.Errorf("parsing npy header: %w", err)
	}
	if rows, cols, err = shapeOf(nr.Header); err != nil {
		return nil, nil, 0, 0, err
	}
	if descr := string(header[preheaderLen : preheaderLen+dlen]); descr != Descriptor(rows, cols) {
		return nil, nil, 0, 0, fmt.Errorf("%w: descriptor %q", ErrNotStreamFile, descr)
	}
	return nr, header, rows, cols, nil
}

// ReadShape parses the npy header at the start of r and returns its shape.
// Only arrays of the kind a Stream writes are accepted.
func ReadShape(r io.Reader) (rows, cols int, err error) {
	_, _, rows, cols, err = openHeader(r)
	return rows, cols, err
}

func shapeOf(h npyio.Header) (rows, cols int, err error) {
	if h.Descr.Type != DType || h.Descr.Fortran || len(h.Descr.Shape) != 2 {
		return 0, 0, fmt.Errorf("%w: descr %q, fortran_order %t, shape %v",
			ErrNotStreamFile, h.Descr.Type, h.Descr.Fortran, h.Descr.Shape)
	}
	return h.Descr.Shape[0], h.Descr.Shape[1], nil
}

// Inspect reads the header of the file at path and checks that the file
// holds exactly the data the header promises.
func Inspect(path string) (Info, error) {
	info := Info{Path: path}
	f, err := os.Open(path)
	if err != nil {
		return info, err
	}
	defer f.Close()

	_, header, rows, cols, err := openHeader(f)
	if err != nil {
		return info, fmt.Errorf("%s: %w", path, err)
	}
	info.Major, info.Minor = header[6], header[7]
	info.Rows, info.Cols = rows, cols
	stat, err := f.Stat()
	if err != nil {
		return info, err
	}
	info.Size = stat.Size()
	info.Header = HeaderLen
	want := int64(HeaderLen) + int64(info.Rows)*int64(info.Cols)*ItemSize
	if info.Size != want {
		return info, fmt.Errorf("%w: %s is %d bytes, header shape (%d, %d) needs %d",
			ErrSizeMismatch, path, info.Size, info.Rows, info.Cols, want)
	}
	return info, nil
}

// ReadAll reads a whole finished file back into memory, in row-major order.
// It is meant for checking small outputs, not for streaming reads.
func ReadAll(path string) (data []float32, rows, cols int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	nr, _, rows, cols, err := openHeader(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("%s: %w", path, err)
	}
	if rows*cols == 0 {
		return []float32{}, rows, cols, nil
	}
	if err = nr.Read(&data); err != nil {
		return nil, 0, 0, err
	}
	return data, rows, cols, nil
}
