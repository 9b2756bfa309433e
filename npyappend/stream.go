package npyappend

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/oklog/ulid/v2"
	"github.com/usnistgov/npystream/bufseek"
	"github.com/usnistgov/npystream/getbytes"
)

// Options control how a Stream writes. The zero value is usable.
type Options struct {
	BufferSize      int  // Bytes of write buffer (default bufseek.DefaultBufferSize)
	CheckpointEvery int  // If >0, patch the header after every this many rows
	Atomic          bool // Write to a temporary file and rename it into place on Close
}

// Stream writes a 2D float32 npy file whose row count grows as rows are
// written. A Stream is not safe for concurrent use, and nothing else may
// touch the destination until Close returns.
type Stream struct {
	path    string // Destination, or "" when writing to a caller's io.WriteSeeker
	tmpPath string // Temporary file renamed onto path at Close (atomic mode only)
	sink    *bufseek.Writer
	ncols   int
	nrows   int

	checkpointEvery int
	rowbuf          []byte    // Encoded bytes of the row being written
	rowf32          []float32 // Scratch row for the gonum adapters
	err             error     // First write error; later writes return it
	closed          bool
	cleanup         runtime.Cleanup
}

// Create creates or truncates the file at path and reserves the header of
// an array with ncols columns.
func Create(path string, ncols int) (*Stream, error) {
	return CreateWithOptions(path, ncols, Options{})
}

// CreateWithOptions is Create with control over buffering, checkpoints and
// atomic publication. In atomic mode the file at path is not touched until
// a successful Close renames the finished file onto it.
func CreateWithOptions(path string, ncols int, opts Options) (*Stream, error) {
	if _, err := EncodeHeader(0, ncols); err != nil {
		return nil, err
	}
	name := path
	if opts.Atomic {
		name = fmt.Sprintf("%s.partial-%s", path, ulid.Make())
	}
	file, err := os.Create(name)
	if err != nil {
		return nil, err
	}
	s, err := newStream(file, ncols, opts, name)
	if err != nil {
		file.Close()
		if opts.Atomic {
			os.Remove(name)
		}
		return nil, err
	}
	s.path = path
	if opts.Atomic {
		s.tmpPath = name
	}
	return s, nil
}

// NewStream starts an npy array with ncols columns on ws, which must be
// positioned at offset 0. If ws is also an io.Closer, Close closes it.
// When NewStream fails, closing ws is left to the caller.
func NewStream(ws io.WriteSeeker, ncols int, opts Options) (*Stream, error) {
	return newStream(ws, ncols, opts, "npy stream")
}

func newStream(ws io.WriteSeeker, ncols int, opts Options, name string) (*Stream, error) {
	header, err := EncodeHeader(0, ncols)
	if err != nil {
		return nil, err
	}
	s := &Stream{
		sink:            bufseek.NewWriter(ws, opts.BufferSize),
		ncols:           ncols,
		checkpointEvery: opts.CheckpointEvery,
		rowbuf:          make([]byte, 0, ItemSize*ncols),
	}
	if _, err := s.sink.Write(header); err != nil {
		return nil, fmt.Errorf("reserving npy header: %w", err)
	}
	s.cleanup = runtime.AddCleanup(s, reportAbandoned, name)
	return s, nil
}

// reportAbandoned runs when a Stream is garbage collected without Close.
func reportAbandoned(name string) {
	ProblemLogger.Printf("npy stream %s was dropped without Close: its header does not count every row", name)
}

// Rows returns the number of rows written successfully so far.
func (s *Stream) Rows() int {
	return s.nrows
}

// Cols returns the fixed number of columns.
func (s *Stream) Cols() int {
	return s.ncols
}

// Path returns the destination path, or "" for a Stream made by NewStream.
func (s *Stream) Path() string {
	return s.path
}

// Closed reports whether Close has been called.
func (s *Stream) Closed() bool {
	return s.closed
}

// Tell returns the length in bytes of the array written so far, header
// included, whether or not it has been flushed.
func (s *Stream) Tell() int64 {
	return s.sink.Tell()
}

// WriteRow appends one row. A row of the wrong length is rejected before
// any byte is written. After a write error the Stream writes no more rows
// and keeps returning that error, but Close must still be called.
//
// If the row is written but the automatic checkpoint that follows it
// fails, the row is counted in Rows and the error says so.
func (s *Stream) WriteRow(row []float32) error {
	if s.closed {
		return ErrClosed
	}
	if len(row) != s.ncols {
		return fmt.Errorf("%w: have %d values, want %d", ErrRowLength, len(row), s.ncols)
	}
	if s.err != nil {
		return s.err
	}
	s.rowbuf = getbytes.AppendFloat32LE(s.rowbuf[:0], row)
	if _, err := s.sink.Write(s.rowbuf); err != nil {
		s.err = fmt.Errorf("writing row %d: %w", s.nrows, err)
		return s.err
	}
	s.nrows++
	if s.checkpointEvery > 0 && s.nrows%s.checkpointEvery == 0 {
		if err := s.Checkpoint(); err != nil {
			return fmt.Errorf("row %d written, checkpoint failed: %w", s.nrows-1, err)
		}
	}
	return nil
}

// Checkpoint rewrites the header with the current row count and returns to
// the end of the file. Afterwards the file on disk is a valid array of
// every row written so far.
func (s *Stream) Checkpoint() error {
	if s.closed {
		return ErrClosed
	}
	if s.err != nil {
		return s.err
	}
	if err := s.patchHeader(); err != nil {
		s.err = fmt.Errorf("checkpoint at row %d: %w", s.nrows, err)
		return s.err
	}
	if _, err := s.sink.Seek(0, io.SeekEnd); err != nil {
		s.err = fmt.Errorf("checkpoint at row %d: %w", s.nrows, err)
		return s.err
	}
	return nil
}

// patchHeader flushes, seeks to the start, rewrites the header and flushes
// again.
func (s *Stream) patchHeader() error {
	header, err := EncodeHeader(s.nrows, s.ncols)
	if err != nil {
		return err
	}
	if err := s.sink.Flush(); err != nil {
		return err
	}
	if _, err := s.sink.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := s.sink.Write(header); err != nil {
		return err
	}
	return s.sink.Flush()
}

// Close finalizes the file: the header is rewritten with the number of rows
// written and the destination is closed (and, in atomic mode, renamed into
// place). Finalization runs even after a write error, but that error is
// returned too, and the file must not be trusted when Close returns an
// error. Close may be called only once; later calls return ErrClosed.
func (s *Stream) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	s.cleanup.Stop()

	err := s.err
	if perr := s.patchHeader(); perr != nil {
		err = errors.Join(err, fmt.Errorf("patching header with %d rows: %w", s.nrows, perr))
	}
	err = errors.Join(err, s.sink.Close())
	if s.tmpPath != "" {
		if err == nil {
			err = os.Rename(s.tmpPath, s.path)
		} else {
			ProblemLogger.Printf("npy stream %s not published, partial data left in %s", s.path, s.tmpPath)
		}
	}
	if err != nil {
		ProblemLogger.Printf("npy stream %s failed to finalize after %d rows: %v", s.describe(), s.nrows, err)
		return err
	}
	return nil
}

func (s *Stream) describe() string {
	if s.path == "" {
		return "(io.WriteSeeker)"
	}
	return s.path
}

// WithStream creates a Stream, passes it to fn and closes it however fn
// exits, panics included. The error from Close is joined to fn's error.
// fn may close the Stream itself.
func WithStream(path string, ncols int, opts Options, fn func(*Stream) error) (err error) {
	s, err := CreateWithOptions(path, ncols, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && !errors.Is(cerr, ErrClosed) {
			err = errors.Join(err, cerr)
		}
	}()
	return fn(s)
}
