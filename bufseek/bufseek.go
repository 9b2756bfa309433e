// Package bufseek provides a buffered writer that can also seek. Any bytes
// still in the buffer are flushed to the underlying sink before a seek is
// issued, so buffered appends can never land after a rewrite at an earlier
// offset.
package bufseek

import (
	"bufio"
	"errors"
	"io"
)

// DefaultBufferSize is used when NewWriter is given a non-positive size.
const DefaultBufferSize = 32768

// ErrClosed is returned by any operation on a Writer after Close.
var ErrClosed = errors.New("bufseek: writer already closed")

// Writer buffers writes to an underlying io.WriteSeeker.
type Writer struct {
	sink   io.WriteSeeker // The sink: all bytes end up here
	writer *bufio.Writer  // Buffered writer: this does the writing
	pos    int64          // Logical offset of the next Write, buffered bytes included
	closed bool
}

// NewWriter creates a new Writer with a buffer of size bytes. The sink's
// current offset is taken to be 0.
func NewWriter(ws io.WriteSeeker, size int) *Writer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Writer{
		sink:   ws,
		writer: bufio.NewWriterSize(ws, size),
	}
}

// Write appends p at the current logical offset.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	n, err := w.writer.Write(p)
	w.pos += int64(n)
	return n, err
}

// Flush writes any buffered data to the underlying sink.
func (w *Writer) Flush() error {
	if w.closed {
		return ErrClosed
	}
	return w.writer.Flush()
}

// Seek flushes the buffer and then seeks the underlying sink.
func (w *Writer) Seek(offset int64, whence int) (int64, error) {
	if err := w.Flush(); err != nil {
		return w.pos, err
	}
	pos, err := w.sink.Seek(offset, whence)
	if err != nil {
		return w.pos, err
	}
	w.pos = pos
	return pos, nil
}

// Tell returns the logical offset: the position the next Write will land
// on, buffered bytes included.
func (w *Writer) Tell() int64 {
	return w.pos
}

// Buffered returns the number of bytes not yet handed to the sink.
func (w *Writer) Buffered() int {
	return w.writer.Buffered()
}

// Close flushes the Writer and closes the sink if it is an io.Closer.
// Close is attempted on the sink even when the flush fails.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	err := w.Flush()
	w.closed = true
	if c, ok := w.sink.(io.Closer); ok {
		err = errors.Join(err, c.Close())
	}
	return err
}
